// Package bgp runs a gobgp speaker with a single peer. Its best paths feed
// the live capture and its RIB answers prefix lookups.
package bgp

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/config"
	gobgpapi "github.com/osrg/gobgp/v3/api"
	"github.com/osrg/gobgp/v3/pkg/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrNotStarted = errors.New("bgp speaker not started")

type Speaker struct {
	mu      sync.Mutex
	srv     *server.BgpServer
	global  config.BGPConfig
	peer    config.PeerConfig
	logger  *zerolog.Logger
	started bool
}

func New(global config.BGPConfig, peer config.PeerConfig) *Speaker {
	return &Speaker{
		global: global,
		peer:   peer,
		logger: &log.Logger,
	}
}

// Start starts the BGP server and configures the peer
func (s *Speaker) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.srv = server.NewBgpServer(server.LoggerOption(newLogger(s.logger)))
	go s.srv.Serve()
	if err := s.configure(ctx); err != nil {
		if stopErr := s.srv.StopBgp(context.Background(), &gobgpapi.StopBgpRequest{}); stopErr != nil {
			s.logger.Debug().Err(stopErr).Msg("StopBgp after failed start")
		}
		s.srv = nil
		return err
	}

	s.started = true
	return nil
}

// configure starts BGP on the server and adds the peer
func (s *Speaker) configure(ctx context.Context) error {

	global := &gobgpapi.Global{
		Asn:        uint32(s.global.ASN),
		RouterId:   s.global.RouterID,
		ListenPort: int32(s.global.Port),
	}
	if s.global.Address != "" {
		global.ListenAddresses = []string{s.global.Address}
	}
	if err := s.srv.StartBgp(ctx, &gobgpapi.StartBgpRequest{Global: global}); err != nil {
		return fmt.Errorf("start bgp: %w", err)
	}

	if err := s.srv.WatchEvent(ctx, &gobgpapi.WatchEventRequest{Peer: &gobgpapi.WatchEventRequest_Peer{}}, func(r *gobgpapi.WatchEventResponse) {
		if p := r.GetPeer(); p != nil && p.Type == gobgpapi.WatchEventResponse_PeerEvent_STATE {
			s.logger.Info().
				Str("src", "gobgp.peer").
				Str("peer", p.GetPeer().GetConf().GetNeighborAddress()).
				Str("state", SessionStateToString(p.GetPeer().GetState().GetSessionState())).
				Msg("peer state changed")
		}
	}); err != nil {
		return fmt.Errorf("watch peer events: %w", err)
	}

	peer := &gobgpapi.Peer{
		EbgpMultihop: &gobgpapi.EbgpMultihop{
			Enabled:     true,
			MultihopTtl: uint32(255),
		},
		Conf: &gobgpapi.PeerConf{
			NeighborAddress: s.peer.Address,
			PeerAsn:         uint32(s.peer.ASN),
		},
	}
	if s.peer.Port != 0 {
		peer.Transport = &gobgpapi.Transport{RemotePort: uint32(s.peer.Port)}
	}
	if err := s.srv.AddPeer(ctx, &gobgpapi.AddPeerRequest{Peer: peer}); err != nil {
		return fmt.Errorf("add peer %s: %w", s.peer.Address, err)
	}
	return nil
}

func (s *Speaker) server() (*server.BgpServer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.srv, nil
}

// Watch calls fn for every best path change in the global table, including
// the paths already present, until ctx is done.
func (s *Speaker) Watch(ctx context.Context, fn func(api.Update)) error {
	srv, err := s.server()
	if err != nil {
		return err
	}

	req := &gobgpapi.WatchEventRequest{
		Table: &gobgpapi.WatchEventRequest_Table{
			Filters: []*gobgpapi.WatchEventRequest_Table_Filter{
				{Type: gobgpapi.WatchEventRequest_Table_Filter_BEST, Init: true},
			},
		},
	}
	return srv.WatchEvent(ctx, req, func(r *gobgpapi.WatchEventResponse) {
		t := r.GetTable()
		if t == nil {
			return
		}
		for _, p := range t.Paths {
			u, err := toUpdate(p)
			if err != nil {
				s.logger.Debug().Err(err).Str("src", "gobgp.table").Msg("skipping path")
				continue
			}
			fn(u)
		}
	})
}

// PeerState reports the session state of the configured peer
func (s *Speaker) PeerState(ctx context.Context) (api.PeerStatus, error) {
	st := api.PeerStatus{Address: s.peer.Address, ASN: uint32(s.peer.ASN), State: "UNKNOWN"}
	srv, err := s.server()
	if err != nil {
		return st, err
	}

	err = srv.ListPeer(ctx, &gobgpapi.ListPeerRequest{Address: s.peer.Address}, func(p *gobgpapi.Peer) {
		state := p.GetState()
		if state == nil {
			return
		}
		st.State = SessionStateToString(state.SessionState)
		st.Flops = state.Flops
		st.Received = state.GetMessages().GetReceived().GetTotal()
		st.Sent = state.GetMessages().GetSent().GetTotal()
	})
	return st, err
}

// Route returns the paths the RIB holds for exactly prefix, one line each
func (s *Speaker) Route(ctx context.Context, prefix string) ([]string, error) {
	srv, err := s.server()
	if err != nil {
		return nil, err
	}
	p, err := netip.ParsePrefix(prefix)
	if err != nil {
		return nil, fmt.Errorf("invalid prefix %q: %w", prefix, err)
	}

	family := &gobgpapi.Family{Afi: gobgpapi.Family_AFI_IP, Safi: gobgpapi.Family_SAFI_UNICAST}
	if p.Addr().Is6() {
		family.Afi = gobgpapi.Family_AFI_IP6
	}

	s.logger.Debug().Str("prefix", prefix).Msg("looking up")

	var lines []string
	err = srv.ListPath(ctx, &gobgpapi.ListPathRequest{
		Family: family,
		Prefixes: []*gobgpapi.TableLookupPrefix{
			{
				Prefix: p.Masked().String(),
				Type:   gobgpapi.TableLookupPrefix_EXACT,
			},
		},
	}, func(d *gobgpapi.Destination) {
		for _, path := range d.Paths {
			u, err := toUpdate(path)
			if err != nil {
				continue
			}
			lines = append(lines, formatRoute(u, path.Best))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list path %s: %w", prefix, err)
	}
	return lines, nil
}

// Stop shuts the peer down and stops the server
func (s *Speaker) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	if err := s.srv.ShutdownPeer(ctx, &gobgpapi.ShutdownPeerRequest{
		Address: s.peer.Address,
	}); err != nil {
		s.logger.Error().Err(err).Msg("ShutdownPeer")
	}
	return s.srv.StopBgp(ctx, &gobgpapi.StopBgpRequest{})
}
