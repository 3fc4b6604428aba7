// Package session manages the per-output layout state: the negotiation
// channel, the option mirrors that tune the layout, and their teardown.
package session

import (
	"errors"
	"fmt"

	"github.com/bnema/waytile/internal/layout"
	"github.com/bnema/waytile/internal/logger"
	"github.com/bnema/waytile/internal/options"
	"github.com/charmbracelet/log"
)

var (
	// ErrNamespaceInUse is reported when another client already serves the
	// requested layout namespace on an output.
	ErrNamespaceInUse = errors.New("namespace already in use")

	ErrAlreadyConfigured = errors.New("session already configured")
	ErrDestroyed         = errors.New("session destroyed")
)

// Output is the compositor output a session negotiates for.
type Output interface {
	Name() string
	Release() error
}

// LayoutEvents receives events of a layout channel.
type LayoutEvents interface {
	HandleNamespaceInUse()
	HandleLayoutDemand(views, width, height, serial uint32)
	HandleAdvertiseView(tags uint32, appID string, serial uint32)
	HandleAdvertiseDone(serial uint32)
}

// OptionEvents receives events of an option handle.
type OptionEvents interface {
	HandleUnset()
	HandleIntValue(v int32)
	HandleUintValue(v uint32)
	HandleFixedValue(v float64)
	HandleStringValue(v string)
}

// LayoutManager creates layout channels.
type LayoutManager interface {
	GetLayout(output Output, namespace string, events LayoutEvents) (LayoutChannel, error)
	Destroy() error
}

// OptionsManager creates option handles.
type OptionsManager interface {
	GetOptionHandle(key string, output Output, events OptionEvents) (options.Handle, error)
	Destroy() error
}

// Host owns the sessions and decides what fatal conditions mean.
type Host interface {
	NamespaceInUse(s *Session)
	Stop(err error)
}

// Session is the layout state of one output. The layout channel and the four
// option handles are acquired together by Configure and released together by
// Destroy; a session never holds only some of them.
type Session struct {
	global uint32
	output Output
	host   Host
	log    *log.Logger

	channel    LayoutChannel
	negotiator *Negotiator
	options    []*options.Option

	mainAmount   *options.Option
	mainFactor   *options.Option
	viewPadding  *options.Option
	outerPadding *options.Option

	configured bool
	destroyed  bool
}

// New creates an unconfigured session for an output identified by its
// registry global name. defaults seed the option mirrors.
func New(global uint32, output Output, defaults layout.Params, host Host) *Session {
	s := &Session{
		global:       global,
		output:       output,
		host:         host,
		log:          logger.With("output", global),
		mainAmount:   options.New(options.MainAmount, options.Uint(defaults.MainAmount)),
		mainFactor:   options.New(options.MainFactor, options.Fixed(defaults.MainFactor)),
		viewPadding:  options.New(options.ViewPadding, options.Uint(defaults.ViewPadding)),
		outerPadding: options.New(options.OuterPadding, options.Uint(defaults.OuterPadding)),
	}
	s.options = []*options.Option{s.mainAmount, s.mainFactor, s.viewPadding, s.outerPadding}
	return s
}

// Global returns the registry name of the output.
func (s *Session) Global() uint32 { return s.global }

// Output returns the output handle.
func (s *Session) Output() Output { return s.output }

// Configured reports whether the channel and options are attached.
func (s *Session) Configured() bool { return s.configured }

// Destroyed reports whether Destroy has run.
func (s *Session) Destroyed() bool { return s.destroyed }

// Negotiator returns the negotiator, nil until configured.
func (s *Session) Negotiator() *Negotiator { return s.negotiator }

// Options returns the option mirrors in request order.
func (s *Session) Options() []*options.Option { return s.options }

// Params returns the layout parameters from the current option values.
func (s *Session) Params() layout.Params {
	return layout.Params{
		MainAmount:   s.mainAmount.Value().Uint(),
		MainFactor:   s.mainFactor.Value().Fixed(),
		ViewPadding:  s.viewPadding.Value().Uint(),
		OuterPadding: s.outerPadding.Value().Uint(),
	}
}

// Configure requests the layout channel for namespace and one handle per
// option. On failure everything acquired so far is released again.
func (s *Session) Configure(lm LayoutManager, om OptionsManager, namespace string) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if s.configured {
		return ErrAlreadyConfigured
	}

	neg := newNegotiator(nil, s.Params, s, s.log)
	ch, err := lm.GetLayout(s.output, namespace, neg)
	if err != nil {
		return fmt.Errorf("get layout %q: %w", namespace, err)
	}
	neg.channel = ch
	s.channel = ch
	s.negotiator = neg

	for _, opt := range s.options {
		h, err := om.GetOptionHandle(opt.Name(), s.output, opt)
		if err != nil {
			if rerr := s.releaseBindings(); rerr != nil {
				s.log.Warn("Rollback after failed configure", "err", rerr)
			}
			return fmt.Errorf("get option handle %s: %w", opt.Name(), err)
		}
		opt.Attach(h, s)
	}

	s.configured = true
	s.log.Debug("Output configured", "name", s.output.Name(), "namespace", namespace)
	return nil
}

// Destroy releases the layout channel, then every option handle, then the
// output itself. Calling it again is a no-op.
func (s *Session) Destroy() error {
	if s.destroyed {
		return nil
	}
	s.destroyed = true

	err := s.releaseBindings()
	if rerr := s.output.Release(); rerr != nil {
		err = errors.Join(err, fmt.Errorf("release output: %w", rerr))
	}
	s.log.Debug("Output destroyed")
	return err
}

func (s *Session) releaseBindings() error {
	var errs []error
	if s.channel != nil {
		if err := s.channel.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy layout: %w", err))
		}
		s.channel = nil
		s.negotiator = nil
	}
	for _, opt := range s.options {
		if err := opt.Release(); err != nil {
			errs = append(errs, fmt.Errorf("destroy option %s: %w", opt.Name(), err))
		}
	}
	s.configured = false
	return errors.Join(errs...)
}

// ParametersChanged forwards an option change to the negotiator.
func (s *Session) ParametersChanged() {
	if s.negotiator == nil {
		return
	}
	s.negotiator.ParametersChanged()
}

// OptionFailed treats a failed option request as fatal.
func (s *Session) OptionFailed(name string, err error) {
	s.fail(fmt.Errorf("option %s: %w", name, err))
}

func (s *Session) namespaceInUse() {
	s.log.Error("Layout namespace already in use", "name", s.output.Name())
	s.host.NamespaceInUse(s)
}

func (s *Session) fail(err error) {
	s.host.Stop(fmt.Errorf("output %d: %w", s.global, err))
}
