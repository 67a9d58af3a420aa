// Package capture holds the state of the live capture of the reference
// backend and fans matching updates out to websocket clients
package capture

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/live"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyRunning = errors.New("capture already running")
	ErrNotRunning     = errors.New("no capture running")
)

// Sink receives every update that passed the capture filters
type Sink func(api.Update)

// Capturer is a single capture session shared by all clients. Updates are
// only published while it runs.
type Capturer struct {
	mu        sync.Mutex
	running   bool
	filters   api.Filters
	prefix    netip.Prefix
	startedAt time.Time
	count     uint64

	broker *live.Broker
	sink   Sink
}

func New(sink Sink) *Capturer {
	return &Capturer{
		broker: live.NewBroker(),
		sink:   sink,
	}
}

// Start begins capturing with filters. A filter prefix must be valid CIDR.
func (c *Capturer) Start(filters api.Filters) error {
	var prefix netip.Prefix
	if filters.Prefix != "" {
		p, err := netip.ParsePrefix(filters.Prefix)
		if err != nil {
			return fmt.Errorf("invalid prefix filter %q: %w", filters.Prefix, err)
		}
		prefix = p.Masked()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}
	c.running = true
	c.filters = filters
	c.prefix = prefix
	c.startedAt = time.Now().UTC()
	c.count = 0

	log.Info().
		Uint32("asn", filters.ASN).
		Str("prefix", filters.Prefix).
		Msg("capture started")
	return nil
}

func (c *Capturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	c.running = false

	log.Info().Uint64("updates", c.count).Msg("capture stopped")
	return nil
}

func (c *Capturer) Status() api.CaptureStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := api.CaptureStatus{Running: c.running, Updates: c.count}
	if c.running {
		filters := c.filters
		startedAt := c.startedAt
		st.Filters = &filters
		st.StartedAt = &startedAt
	}
	return st
}

// matches reports whether u passes the filters: origin AS equality and
// containment of the update prefix in the filter prefix
func (c *Capturer) matches(u api.Update) bool {
	if c.filters.ASN != 0 && u.OriginAS != c.filters.ASN {
		return false
	}
	if c.prefix.IsValid() {
		p, err := netip.ParsePrefix(u.Prefix)
		if err != nil {
			return false
		}
		if p.Bits() < c.prefix.Bits() || !c.prefix.Contains(p.Addr()) {
			return false
		}
	}
	return true
}

// Publish pushes u to all subscribers if a capture is running and u passes
// its filters
func (c *Capturer) Publish(u api.Update) bool {
	c.mu.Lock()
	if !c.running || !c.matches(u) {
		c.mu.Unlock()
		return false
	}
	c.count++
	c.mu.Unlock()

	ev, err := live.NewEvent(live.EventBGPUpdate, u)
	if err != nil {
		log.Error().Err(err).Str("prefix", u.Prefix).Msg("failed to encode update")
		return false
	}
	c.broker.Publish(ev)

	if c.sink != nil {
		c.sink(u)
	}
	return true
}

// Subscribe returns a stream of bgp_update events
func (c *Capturer) Subscribe(buffer int) (int64, <-chan live.Event) {
	return c.broker.Subscribe(buffer)
}

func (c *Capturer) Unsubscribe(id int64) {
	c.broker.Unsubscribe(id)
}

// Close ends all subscriptions
func (c *Capturer) Close() {
	c.broker.Close()
}
