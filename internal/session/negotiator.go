package session

import (
	"fmt"

	"github.com/bnema/waytile/internal/layout"
	"github.com/charmbracelet/log"
)

// State is the negotiation state of one output.
type State int

const (
	Idle State = iota
	AwaitingDemand
	Computing
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingDemand:
		return "awaiting-demand"
	case Computing:
		return "computing"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// LayoutChannel is the per-output negotiation object on the compositor side.
type LayoutChannel interface {
	PushViewDimensions(serial uint32, x, y int32, width, height uint32) error
	Commit(serial uint32) error
	ParametersChanged() error
	Destroy() error
}

// Negotiator answers layout demands for a single output. Every rectangle of
// a demand is pushed with that demand's serial, followed by exactly one
// commit, before the next event is looked at.
type Negotiator struct {
	channel LayoutChannel
	params  func() layout.Params
	host    negotiationHost
	log     *log.Logger

	state      State
	lastSerial uint32
	rounds     uint64
}

type negotiationHost interface {
	namespaceInUse()
	fail(err error)
}

func newNegotiator(ch LayoutChannel, params func() layout.Params, host negotiationHost, l *log.Logger) *Negotiator {
	return &Negotiator{
		channel: ch,
		params:  params,
		host:    host,
		log:     l,
		state:   Idle,
	}
}

// State returns the current negotiation state.
func (n *Negotiator) State() State { return n.state }

// LastSerial returns the serial of the most recently committed demand.
func (n *Negotiator) LastSerial() uint32 { return n.lastSerial }

// Rounds returns how many demands have been committed.
func (n *Negotiator) Rounds() uint64 { return n.rounds }

// HandleLayoutDemand computes and reports the layout for one demand. It runs
// to completion on the dispatch goroutine, so demands never overlap.
func (n *Negotiator) HandleLayoutDemand(views, width, height, serial uint32) {
	n.state = Computing
	d := layout.Demand{Views: views, Width: width, Height: height, Serial: serial}

	for i, r := range layout.Rects(n.params(), d) {
		if err := n.channel.PushViewDimensions(serial, r.X, r.Y, r.Width, r.Height); err != nil {
			n.state = Idle
			n.host.fail(fmt.Errorf("push view %d for serial %d: %w", i, serial, err))
			return
		}
	}
	if err := n.channel.Commit(serial); err != nil {
		n.state = Idle
		n.host.fail(fmt.Errorf("commit serial %d: %w", serial, err))
		return
	}

	n.state = Committed
	n.lastSerial = serial
	n.rounds++
	n.log.Debug("Layout committed", "serial", serial, "views", views, "width", width, "height", height)
	n.state = Idle
}

// HandleNamespaceInUse reports that another client owns the namespace.
func (n *Negotiator) HandleNamespaceInUse() {
	n.host.namespaceInUse()
}

// HandleAdvertiseView is ignored; the layout does not depend on view metadata.
func (n *Negotiator) HandleAdvertiseView(tags uint32, appID string, serial uint32) {}

// HandleAdvertiseDone is ignored.
func (n *Negotiator) HandleAdvertiseDone(serial uint32) {}

// ParametersChanged tells the compositor a layout input changed. It does not
// recompute anything; a new demand has to arrive first.
func (n *Negotiator) ParametersChanged() {
	if err := n.channel.ParametersChanged(); err != nil {
		n.host.fail(fmt.Errorf("parameters changed: %w", err))
		return
	}
	if n.state == Idle {
		n.state = AwaitingDemand
	}
}
