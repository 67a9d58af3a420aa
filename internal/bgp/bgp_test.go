package bgp

import (
	"bytes"
	"context"
	"testing"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/config"
	gobgpapi "github.com/osrg/gobgp/v3/api"
	bgpLog "github.com/osrg/gobgp/v3/pkg/log"
	"github.com/osrg/gobgp/v3/pkg/packet/bgp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateToString(t *testing.T) {
	assert.Equal(t, "ESTABLISHED", SessionStateToString(gobgpapi.PeerState_ESTABLISHED))
	assert.Equal(t, "IDLE", SessionStateToString(gobgpapi.PeerState_IDLE))
	assert.Equal(t, "INVALID", SessionStateToString(gobgpapi.PeerState_SessionState(42)))
}

func TestApplyAttributes(t *testing.T) {
	u := api.Update{Prefix: "8.8.8.0/24"}
	applyAttributes(&u, []bgp.PathAttributeInterface{
		bgp.NewPathAttributeAsPath([]bgp.AsPathParamInterface{
			bgp.NewAs4PathParam(bgp.BGP_ASPATH_ATTR_TYPE_SEQ, []uint32{3320, 3356, 15169}),
		}),
		bgp.NewPathAttributeNextHop("192.0.2.1"),
	})

	assert.Equal(t, []uint32{3320, 3356, 15169}, u.ASPath)
	assert.Equal(t, uint32(15169), u.OriginAS)
	assert.Equal(t, "192.0.2.1", u.NextHop)
}

func TestFormatRoute(t *testing.T) {
	u := api.Update{Prefix: "8.8.8.0/24", NextHop: "192.0.2.1", ASPath: []uint32{3356, 15169}}
	assert.Equal(t, "*> 8.8.8.0/24 via 192.0.2.1 path 3356 15169", formatRoute(u, true))
	assert.Equal(t, "*  8.8.8.0/24", formatRoute(api.Update{Prefix: "8.8.8.0/24"}, false))
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.InfoLevel)
	l := newLogger(&zl)

	assert.Equal(t, bgpLog.InfoLevel, l.GetLevel())

	l.Debug("hidden", nil)
	assert.Empty(t, buf.String())

	l.Warn("peer down", bgpLog.Fields{"Key": "192.0.2.1"})
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"src":"gobgp.server"`)
	assert.Contains(t, buf.String(), `"Key":"192.0.2.1"`)

	buf.Reset()
	l.SetLevel(bgpLog.ErrorLevel)
	l.Warn("hidden", nil)
	assert.Empty(t, buf.String())
}

func TestSpeakerNotStarted(t *testing.T) {
	s := New(config.BGPConfig{ASN: 65000, RouterID: "192.0.2.254"}, config.PeerConfig{Address: "192.0.2.1", ASN: 65001})
	ctx := context.Background()

	_, err := s.Route(ctx, "8.8.8.0/24")
	require.ErrorIs(t, err, ErrNotStarted)

	st, err := s.PeerState(ctx)
	require.ErrorIs(t, err, ErrNotStarted)
	assert.Equal(t, "UNKNOWN", st.State)
	assert.Equal(t, uint32(65001), st.ASN)

	require.ErrorIs(t, s.Watch(ctx, func(api.Update) {}), ErrNotStarted)
	require.NoError(t, s.Stop(ctx))
}

func TestStartFailureTearsDown(t *testing.T) {
	// Port -1 keeps gobgp from listening; the empty neighbor address makes
	// AddPeer fail after BGP itself started
	s := New(config.BGPConfig{ASN: 65000, RouterID: "192.0.2.254", Port: -1}, config.PeerConfig{ASN: 65001})
	ctx := context.Background()

	require.Error(t, s.Start(ctx))
	assert.False(t, s.started)
	assert.Nil(t, s.srv)

	_, err := s.Route(ctx, "8.8.8.0/24")
	require.ErrorIs(t, err, ErrNotStarted)
	require.NoError(t, s.Stop(ctx))
}
