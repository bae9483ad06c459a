package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
)

var (
	cmdSet = &cobra.Command{
		Use:   "set",
		Short: "Write a feature value and read it back",
		Long:  ``,
		Run:   runSet,
	}
)

var setUUID string
var setValue string
var setSave bool

func init() {
	rootCmd.AddCommand(cmdSet)
	cmdSet.Flags().StringVarP(&setUUID, "uuid", "u", cxl.TestFeatureUUID.String(), "Feature UUID")
	cmdSet.Flags().StringVarP(&setValue, "value", "v", "", "Value to write, decimal or 0x hex")
	cmdSet.Flags().BoolVarP(&setSave, "save", "S", false, "Ask the device to keep the value across reset")
	cmdSet.MarkFlagRequired("value")
}

func runSet(_ *cobra.Command, _ []string) {
	log := rootLogger("fwctl.set")

	id, err := uuid.Parse(setUUID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	value, err := strconv.ParseUint(setValue, 0, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad value %q: %v\n", setValue, err)
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

	ctx := context.Background()
	entry, err := mb.FindFeature(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("uuid", id.String()).Msg("feature lookup failed")
		os.Exit(1)
	}

	flags := cxl.SetFlagFullDataTransfer
	if setSave {
		flags |= cxl.SetFlagDataSavedAcrossReset
	}
	err = mb.SetFeature(ctx, entry, uint32(value), flags)
	if err != nil {
		log.Error().Err(err).Str("uuid", id.String()).Msg("set feature failed")
		os.Exit(1)
	}
	fmt.Printf("feature %s set to 0x%08x, verified\n", id, uint32(value))
}
