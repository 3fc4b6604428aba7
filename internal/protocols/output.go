package protocols

import (
	"fmt"

	"github.com/bnema/wlturbo/wl"
)

// OutputInterface is the core output interface name
const OutputInterface = "wl_output"

// OutputReleaseSince is the first wl_output version with a release request
const OutputReleaseSince = 3

// Output is a bound wl_output. Only the name and description events are
// decoded; the layout client needs nothing else from it.
type Output struct {
	wl.BaseProxy
	version     uint32
	name        string
	description string
}

// NewOutput creates an output proxy to be bound at version
func NewOutput(ctx *wl.Context, version uint32) *Output {
	output := &Output{version: version}
	output.SetContext(ctx)
	return output
}

// Version returns the bound version
func (o *Output) Version() uint32 {
	return o.version
}

// Name returns the compositor-assigned name, or a placeholder before the
// name event arrives (or for outputs bound below version 4)
func (o *Output) Name() string {
	if o.name != "" {
		return o.name
	}
	return fmt.Sprintf("%s@%d", OutputInterface, o.ID())
}

// Description returns the human readable description, if any
func (o *Output) Description() string {
	return o.description
}

// Release releases the output
func (o *Output) Release() error {
	var err error
	if o.version >= OutputReleaseSince {
		// Opcode 0: release
		const opcode = 0
		err = o.Context().SendRequest(o, opcode)
	}
	o.Context().Unregister(o)
	return err
}

// Dispatch handles incoming events
func (o *Output) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 4: // name (since version 4)
		o.name = event.String()
	case 5: // description (since version 4)
		o.description = event.String()
	}
}
