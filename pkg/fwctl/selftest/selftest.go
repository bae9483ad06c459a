package selftest

import (
	"context"
	"fmt"

	"github.com/loopholelabs/logging/types"

	"github.com/loopholelabs/fwctl/pkg/fwctl"
	"github.com/loopholelabs/fwctl/pkg/fwctl/config"
	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
)

// SelfTest drives the feature protocol end to end against one
// transport: enumerate, match each profiled feature, read its initial
// value, write its update value and read that back. It is the same
// sequence the kernel selftest runs against the test mailbox device.
type SelfTest struct {
	transport fwctl.Transport
	mailbox   *cxl.Mailbox
	schema    *config.Schema
	log       types.Logger
}

// Step is one checkpoint of the sequence and how it went.
type Step struct {
	Name string
	Err  error
}

// Report is every step that ran, in order. A failed step is always the
// last one, nothing runs after a failure.
type Report struct {
	Steps []*Step
}

// Failed returns the failing step, or nil if every step passed.
func (r *Report) Failed() *Step {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s
		}
	}
	return nil
}

func (r *Report) Passed() bool {
	return r.Failed() == nil
}

func New(t fwctl.Transport, schema *config.Schema, log types.Logger) *SelfTest {
	return &SelfTest{
		transport: t,
		mailbox:   cxl.NewMailbox(t, log),
		schema:    schema,
		log:       log,
	}
}

// Mailbox returns the mailbox the selftest submits through, so callers
// can hang metrics off it.
func (st *SelfTest) Mailbox() *cxl.Mailbox {
	return st.mailbox
}

// infoTransport is a transport that can also answer the fwctl info
// query. The real device always can, the info step is skipped for
// transports that cannot.
type infoTransport interface {
	Info() (*fwctl.Info, error)
}

// Run walks the whole sequence, stopping at the first failure. The
// returned report holds every step that ran; the error is the failing
// step's error wrapped with its name, so the kind is still there for
// errors.Is.
func (st *SelfTest) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if it, ok := st.transport.(infoTransport); ok {
		err := st.step(report, "device info", func() error {
			return st.checkInfo(it)
		})
		if err != nil {
			return report, err
		}
	}

	var entries []*cxl.FeatureEntry
	err := st.step(report, "enumerate features", func() error {
		var err error
		entries, err = st.mailbox.SupportedFeatures(ctx)
		return err
	})
	if err != nil {
		return report, err
	}

	for _, fs := range st.schema.Features {
		err = st.checkFeature(ctx, report, fs, entries)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (st *SelfTest) checkInfo(it infoTransport) error {
	info, err := it.Info()
	if err != nil {
		return err
	}
	if info.DeviceType != fwctl.DeviceTypeCXL {
		return fmt.Errorf("device type %s, expected %s", info.DeviceType, fwctl.DeviceTypeCXL)
	}
	return nil
}

func (st *SelfTest) checkFeature(ctx context.Context, report *Report, fs *config.FeatureSchema, entries []*cxl.FeatureEntry) error {
	id, err := fs.UUIDBytes()
	if err != nil {
		return st.step(report, fmt.Sprintf("feature %q entry", fs.Name), func() error {
			return err
		})
	}

	var entry *cxl.FeatureEntry
	err = st.step(report, fmt.Sprintf("feature %q entry", fs.Name), func() error {
		for _, e := range entries {
			if e.UUID == id {
				entry = e
				break
			}
		}
		return fs.Matches(entry)
	})
	if err != nil {
		return err
	}

	err = st.step(report, fmt.Sprintf("feature %q initial value", fs.Name), func() error {
		return st.mailbox.VerifyFeature(ctx, id, fs.Initial)
	})
	if err != nil {
		return err
	}

	err = st.step(report, fmt.Sprintf("feature %q set", fs.Name), func() error {
		flags := cxl.SetFlagFullDataTransfer
		if fs.SaveAcrossReset {
			flags |= cxl.SetFlagDataSavedAcrossReset
		}
		return st.mailbox.SetFeature(ctx, entry, fs.Update, flags)
	})
	if err != nil {
		return err
	}

	// SetFeature already verified, but read once more on its own so a
	// flaky readback shows up here rather than in the next session.
	return st.step(report, fmt.Sprintf("feature %q readback", fs.Name), func() error {
		return st.mailbox.VerifyFeature(ctx, id, fs.Update)
	})
}

func (st *SelfTest) step(report *Report, name string, fn func() error) error {
	err := fn()
	report.Steps = append(report.Steps, &Step{Name: name, Err: err})
	if st.log != nil {
		if err != nil {
			st.log.Error().Err(err).Str("step", name).Msg("selftest step failed")
		} else {
			st.log.Info().Str("step", name).Msg("selftest step passed")
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
