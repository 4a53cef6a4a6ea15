package connection

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/studiowebux/dicomkit/internal/store"
	"github.com/studiowebux/dicomkit/internal/types"
)

var (
	// ErrUnknownEndpoint is returned when activating an endpoint that was never added
	ErrUnknownEndpoint = fmt.Errorf("unknown endpoint: %w", types.ErrInvalidReference)
	// ErrInvalidScpConfig is returned for listener settings outside their ranges
	ErrInvalidScpConfig = errors.New("invalid SCP configuration")
)

var validate = validator.New()

// State holds the local listener status and every known remote endpoint
type State struct {
	state *store.Store[types.ConnectionState]
}

// New creates a connection state with the listener stopped and scp as its
// configuration.
func New(scp types.ScpConfig) *State {
	return &State{
		state: store.New(types.ConnectionState{
			Scp:          scp,
			Peers:        []types.PeerEndpoint{},
			WebEndpoints: []types.WebServiceEndpoint{},
		}),
	}
}

// State returns the current connection state
func (s *State) State() types.ConnectionState {
	return s.state.Get()
}

// Subscribe registers fn for the current state and every change
func (s *State) Subscribe(fn func(types.ConnectionState)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// SetScpRunning records whether the local listener is accepting associations
func (s *State) SetScpRunning(running bool) {
	s.state.Update(func(c types.ConnectionState) (types.ConnectionState, bool) {
		if c.ScpRunning == running {
			return c, false
		}
		c.ScpRunning = running
		return c, true
	})
}

// SetScpConfig replaces the listener AE title and port, keeping the PDU size
func (s *State) SetScpConfig(aeTitle string, port int) error {
	cfg := s.state.Get().Scp
	cfg.AETitle = aeTitle
	cfg.Port = port
	return s.ReplaceScpConfig(cfg)
}

// ReplaceScpConfig replaces the whole listener configuration
func (s *State) ReplaceScpConfig(cfg types.ScpConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScpConfig, err)
	}
	s.state.Update(func(c types.ConnectionState) (types.ConnectionState, bool) {
		if c.Scp == cfg {
			return c, false
		}
		c.Scp = cfg
		return c, true
	})
	return nil
}

// AddPeerEndpoint adds ep unless an endpoint with the same AE title, host and
// port is already known. It reports whether ep was added.
func (s *State) AddPeerEndpoint(ep types.PeerEndpoint) bool {
	return s.state.Update(func(c types.ConnectionState) (types.ConnectionState, bool) {
		for _, existing := range c.Peers {
			if existing.Key() == ep.Key() {
				return c, false
			}
		}
		peers := make([]types.PeerEndpoint, 0, len(c.Peers)+1)
		peers = append(peers, c.Peers...)
		c.Peers = append(peers, ep)
		return c, true
	})
}

// RemovePeerEndpoint forgets the peer with ep's identity
func (s *State) RemovePeerEndpoint(ep types.PeerEndpoint) bool {
	return s.state.Update(func(c types.ConnectionState) (types.ConnectionState, bool) {
		peers := make([]types.PeerEndpoint, 0, len(c.Peers))
		for _, existing := range c.Peers {
			if existing.Key() != ep.Key() {
				peers = append(peers, existing)
			}
		}
		if len(peers) == len(c.Peers) {
			return c, false
		}
		c.Peers = peers
		return c, true
	})
}

// AddWebServiceEndpoint adds ep unless an endpoint with the same base URL is
// already known. It reports whether ep was added.
func (s *State) AddWebServiceEndpoint(ep types.WebServiceEndpoint) bool {
	return s.state.Update(func(c types.ConnectionState) (types.ConnectionState, bool) {
		for _, existing := range c.WebEndpoints {
			if existing.Key() == ep.Key() {
				return c, false
			}
		}
		endpoints := make([]types.WebServiceEndpoint, 0, len(c.WebEndpoints)+1)
		endpoints = append(endpoints, c.WebEndpoints...)
		c.WebEndpoints = append(endpoints, ep)
		return c, true
	})
}

// RemoveWebServiceEndpoint forgets the endpoint at baseURL. Removing the active
// endpoint leaves no endpoint active.
func (s *State) RemoveWebServiceEndpoint(baseURL string) bool {
	return s.state.Update(func(c types.ConnectionState) (types.ConnectionState, bool) {
		endpoints := make([]types.WebServiceEndpoint, 0, len(c.WebEndpoints))
		for _, existing := range c.WebEndpoints {
			if existing.Key() != baseURL {
				endpoints = append(endpoints, existing)
			}
		}
		if len(endpoints) == len(c.WebEndpoints) {
			return c, false
		}
		c.WebEndpoints = endpoints
		if c.ActiveWebEndpoint == baseURL {
			c.ActiveWebEndpoint = ""
		}
		return c, true
	})
}

// SetActiveWebServiceEndpoint makes the endpoint at baseURL the one used for
// subsequent operations. It fails, leaving state unchanged, when the endpoint is
// not known.
func (s *State) SetActiveWebServiceEndpoint(baseURL string) error {
	var err error
	s.state.Update(func(c types.ConnectionState) (types.ConnectionState, bool) {
		for _, existing := range c.WebEndpoints {
			if existing.Key() == baseURL {
				if c.ActiveWebEndpoint == baseURL {
					return c, false
				}
				c.ActiveWebEndpoint = baseURL
				return c, true
			}
		}
		err = fmt.Errorf("%w: %s", ErrUnknownEndpoint, baseURL)
		return c, false
	})
	return err
}

// ClearActiveWebServiceEndpoint leaves no endpoint active
func (s *State) ClearActiveWebServiceEndpoint() {
	s.state.Update(func(c types.ConnectionState) (types.ConnectionState, bool) {
		if c.ActiveWebEndpoint == "" {
			return c, false
		}
		c.ActiveWebEndpoint = ""
		return c, true
	})
}

// ActiveWebServiceEndpoint returns the active endpoint, if any
func (s *State) ActiveWebServiceEndpoint() (types.WebServiceEndpoint, bool) {
	c := s.state.Get()
	if c.ActiveWebEndpoint == "" {
		return types.WebServiceEndpoint{}, false
	}
	for _, ep := range c.WebEndpoints {
		if ep.Key() == c.ActiveWebEndpoint {
			return ep, true
		}
	}
	return types.WebServiceEndpoint{}, false
}
