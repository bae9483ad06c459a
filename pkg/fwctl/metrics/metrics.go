package metrics

import (
	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
)

// FwctlMetrics is implemented by metrics collectors that watch the
// moving parts of the client.
type FwctlMetrics interface {
	Shutdown()

	AddMailbox(name string, mb *cxl.Mailbox)
	RemoveMailbox(name string)
}
