package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
)

var (
	cmdGet = &cobra.Command{
		Use:   "get",
		Short: "Read a feature value",
		Long:  ``,
		Run:   runGet,
	}
)

var getUUID string
var getSelection string

func init() {
	rootCmd.AddCommand(cmdGet)
	cmdGet.Flags().StringVarP(&getUUID, "uuid", "u", cxl.TestFeatureUUID.String(), "Feature UUID")
	cmdGet.Flags().StringVarP(&getSelection, "selection", "s", "current", "current, default or saved")
}

func parseSelection(s string) (cxl.Selection, error) {
	switch s {
	case "current":
		return cxl.SelectionCurrent, nil
	case "default":
		return cxl.SelectionDefault, nil
	case "saved":
		return cxl.SelectionSaved, nil
	}
	return 0, fmt.Errorf("unknown selection %q", s)
}

func runGet(_ *cobra.Command, _ []string) {
	log := rootLogger("fwctl.get")

	id, err := uuid.Parse(getUUID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	sel, err := parseSelection(getSelection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	met := startMetrics()
	dev := openDevice(log)
	defer dev.Close()

	mb := cxl.NewMailbox(dev, log)
	if met != nil {
		met.AddMailbox(rootDevice, mb)
		defer met.Shutdown()
	}

	value, err := mb.GetFeatureValue(context.Background(), id, sel)
	if err != nil {
		log.Error().Err(err).Str("uuid", id.String()).Msg("get feature failed")
		os.Exit(1)
	}
	fmt.Printf("0x%08x\n", value)
}
