package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
)

var (
	cmdFeatures = &cobra.Command{
		Use:   "features",
		Short: "List the features the device supports",
		Long:  ``,
		Run:   runFeatures,
	}
)

func init() {
	rootCmd.AddCommand(cmdFeatures)
}

func runFeatures(_ *cobra.Command, _ []string) {
	log := rootLogger("fwctl.features")
	met := startMetrics()
	dev := openDevice(log)
	defer dev.Close()

	mb := cxl.NewMailbox(dev, log)
	if met != nil {
		met.AddMailbox(rootDevice, mb)
		defer met.Shutdown()
	}

	entries, err := mb.SupportedFeatures(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("feature enumeration failed")
		os.Exit(1)
	}

	fmt.Printf("%d features\n", len(entries))
	for _, e := range entries {
		fmt.Printf("%s id=%d get=%d(v%d) set=%d(v%d) effects=0x%04x\n",
			e.UUID, e.ID, e.GetSize, e.GetVersion, e.SetSize, e.SetVersion, e.Effects)
	}
}
