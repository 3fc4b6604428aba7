package registry

import (
	"github.com/bnema/waytile/internal/layout"
)

// SessionStatus is a point-in-time view of one output session.
type SessionStatus struct {
	Global     uint32
	Output     string
	Configured bool
	State      string
	LastSerial uint32
	Rounds     uint64
	Params     layout.Params
}

// Status is a point-in-time view of the client. It holds no references into
// live state and may be read from any goroutine.
type Status struct {
	Namespace      string
	LayoutManager  bool
	OptionsManager bool
	Synced         bool
	Sessions       []SessionStatus
}

// Status captures the current state. Like every other Client method it must
// run on the dispatch goroutine.
func (c *Client) Status() Status {
	st := Status{
		Namespace:      c.settings.Namespace,
		LayoutManager:  c.HasLayoutManager(),
		OptionsManager: c.HasOptionsManager(),
		Synced:         c.synced,
	}
	for _, s := range c.Sessions() {
		ss := SessionStatus{
			Global:     s.Global(),
			Output:     s.Output().Name(),
			Configured: s.Configured(),
			State:      "unconfigured",
			Params:     s.Params(),
		}
		if n := s.Negotiator(); n != nil {
			ss.State = n.State().String()
			ss.LastSerial = n.LastSerial()
			ss.Rounds = n.Rounds()
		}
		st.Sessions = append(st.Sessions, ss)
	}
	return st
}
