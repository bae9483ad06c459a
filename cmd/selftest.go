package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopholelabs/fwctl/pkg/fwctl"
	"github.com/loopholelabs/fwctl/pkg/fwctl/config"
	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
	"github.com/loopholelabs/fwctl/pkg/fwctl/selftest"
)

var (
	cmdSelftest = &cobra.Command{
		Use:   "selftest",
		Short: "Run the feature sequence end to end",
		Long:  ``,
		Run:   runSelftest,
	}
)

var selftestConf string
var selftestMock bool

func init() {
	rootCmd.AddCommand(cmdSelftest)
	cmdSelftest.Flags().StringVarP(&selftestConf, "conf", "c", "", "Feature profile, defaults to the kernel test device profile")
	cmdSelftest.Flags().BoolVarP(&selftestMock, "mock", "M", false, "Run against the in process mock device")
}

func runSelftest(ccmd *cobra.Command, _ []string) {
	log := rootLogger("fwctl.selftest")

	schema := config.DefaultSchema()
	if selftestConf != "" {
		var err error
		schema, err = config.ReadSchema(selftestConf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	var transport fwctl.Transport
	if selftestMock {
		transport = cxl.NewMockDevice()
	} else {
		path := rootDevice
		if schema.Device != nil && schema.Device.Path != "" && !ccmd.Flags().Changed("device") {
			path = schema.Device.Path
		}
		dev, err := fwctl.New(path, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer dev.Close()
		transport = dev
	}

	met := startMetrics()
	st := selftest.New(transport, schema, log)
	if met != nil {
		met.AddMailbox(rootDevice, st.Mailbox())
		defer met.Shutdown()
	}

	report, err := st.Run(context.Background())
	for _, s := range report.Steps {
		if s.Err != nil {
			fmt.Printf("%-32s FAIL  %v\n", s.Name, s.Err)
		} else {
			fmt.Printf("%-32s ok\n", s.Name)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}
