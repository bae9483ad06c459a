package cxl

import "fmt"

// Mailbox return codes we name in code.
const (
	RetvalSuccess       uint32 = 0x0
	RetvalInvalidInput  uint32 = 0x2
	RetvalUnsupported   uint32 = 0x3
	RetvalInternalError uint32 = 0x4
	RetvalRetryRequired uint32 = 0x5
	RetvalBusy          uint32 = 0x6
)

var returnCodes = []string{
	"Success",
	"Background Command Started",
	"Invalid Input",
	"Unsupported",
	"Internal Error",
	"Retry Required",
	"Busy",
	"Media Disabled",
	"FW Transfer in Progress",
	"FW Transfer Out of Order",
	"FW Authentication Failed",
	"Invalid Slot",
	"Activation Failed, FW Rolled Back",
	"Activation Failed, Cold Reset Required",
	"Invalid Handle",
	"Invalid Physical Address",
	"Inject Poison Limit Reached",
	"Permanent Media Failure",
	"Aborted",
	"Invalid Security State",
	"Incorrect Passphrase",
	"Unsupported Mailbox",
	"Invalid Payload Length",
}

// ReturnCodeString names a CXL mailbox return code.
func ReturnCodeString(rc uint32) string {
	if int(rc) < len(returnCodes) {
		return returnCodes[rc]
	}
	return fmt.Sprintf("Unknown (0x%x)", rc)
}
