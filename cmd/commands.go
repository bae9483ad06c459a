package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/loopholelabs/fwctl/pkg/fwctl"
	"github.com/loopholelabs/fwctl/pkg/fwctl/metrics"
	fwctlprom "github.com/loopholelabs/fwctl/pkg/fwctl/metrics/prometheus"
)

var (
	rootCmd = &cobra.Command{
		Use:           "fwctl",
		Short:         "fwctl CXL feature mailbox client.",
		Long:          ``,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

var rootDevice string
var rootDebug bool
var rootMetrics string

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootDevice, "device", "D", "/dev/fwctl/fwctl0", "fwctl device node")
	rootCmd.PersistentFlags().BoolVarP(&rootDebug, "debug", "d", false, "Debug logging (trace)")
	rootCmd.PersistentFlags().StringVarP(&rootMetrics, "metrics", "m", "", "Prom metrics address")
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func rootLogger(name string) types.RootLogger {
	log := logging.New(logging.Zerolog, name, os.Stderr)
	if rootDebug {
		log.SetLevel(types.TraceLevel)
	}
	return log
}

func openDevice(log types.Logger) *fwctl.Device {
	dev, err := fwctl.New(rootDevice, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return dev
}

// startMetrics wires up a prometheus registry and serves it when
// --metrics is set. Returns nil when metrics are off.
func startMetrics() metrics.FwctlMetrics {
	if rootMetrics == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	met := fwctlprom.New(reg, fwctlprom.DefaultConfig())

	// Add the default go metrics
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	http.Handle("/metrics", promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          reg,
		},
	))
	go http.ListenAndServe(rootMetrics, nil)
	return met
}
