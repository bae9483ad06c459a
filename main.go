package main

import (
	"context"
	"os"

	"github.com/loopholelabs/logging"

	"github.com/loopholelabs/fwctl/pkg/fwctl/config"
	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
	"github.com/loopholelabs/fwctl/pkg/fwctl/selftest"
)

// Runs the feature selftest against the in process mock device, the
// same sequence `fwctl selftest` runs against real hardware. Handy for
// seeing the whole stack work without a kernel that has a fwctl
// device.
func main() {
	log := logging.New(logging.Zerolog, "fwctl", os.Stdout)

	dev := cxl.NewMockDevice()
	st := selftest.New(dev, config.DefaultSchema(), log)

	report, err := st.Run(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("selftest failed")
		os.Exit(1)
	}

	met := st.Mailbox().GetMetrics()
	log.Info().
		Int("steps", len(report.Steps)).
		Uint64("commands", met.Commands).
		Uint64("bytesIn", met.BytesIn).
		Uint64("bytesOut", met.BytesOut).
		Msg("selftest passed")
}
