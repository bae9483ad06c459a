package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cmdInfo = &cobra.Command{
		Use:   "info",
		Short: "Report what sits behind the fwctl device",
		Long:  ``,
		Run:   runInfo,
	}
)

func init() {
	rootCmd.AddCommand(cmdInfo)
}

func runInfo(_ *cobra.Command, _ []string) {
	log := rootLogger("fwctl.info")
	dev := openDevice(log)
	defer dev.Close()

	info, err := dev.Info()
	if err != nil {
		log.Error().Err(err).Msg("fwctl info failed")
		os.Exit(1)
	}

	fmt.Printf("%s: %s device\n", dev.Path(), info.DeviceType)
	if len(info.DeviceData) > 0 {
		fmt.Printf("device data: %d bytes\n", len(info.DeviceData))
	}
}
