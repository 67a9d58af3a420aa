// Package store keeps the dataset served by the reference backend and
// answers topology, trend and update queries over it
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	jsoniter "github.com/json-iterator/go"
)

var j = jsoniter.ConfigCompatibleWithStandardLibrary

// Dataset is the on-disk format of the backend data
type Dataset struct {
	// Topology by date (YYYY-MM-DD)
	Topology map[string]api.CountryTopology `json:"topology"`
	// ASStats by AS number
	ASStats map[string][]api.ASStat `json:"as_stats"`
	Trend   []api.TrendPoint        `json:"trend"`
	Updates []api.Update            `json:"updates"`
}

// Download records one accepted download request
type Download struct {
	Date        string    `json:"date"`
	Type        string    `json:"type"`
	RequestedAt time.Time `json:"requested_at"`
}

type Store struct {
	mu        sync.RWMutex
	data      Dataset
	downloads []Download
}

func New(ds Dataset) *Store {
	if ds.Topology == nil {
		ds.Topology = make(map[string]api.CountryTopology)
	}
	if ds.ASStats == nil {
		ds.ASStats = make(map[string][]api.ASStat)
	}
	return &Store{data: ds}
}

func NewFromReader(r io.Reader) (*Store, error) {
	var ds Dataset
	if err := j.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	return New(ds), nil
}

// NewFromFile loads the dataset at path. An empty path yields an empty store.
func NewFromFile(path string) (s *Store, err error) {
	if path == "" {
		return New(Dataset{}), nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return NewFromReader(f)
}

// CountryTopology returns the topology of date, empty if there is none
func (s *Store) CountryTopology(date string) api.CountryTopology {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topo, ok := s.data.Topology[date]
	if !ok {
		return api.CountryTopology{Nodes: []api.CountryNode{}, Links: []api.CountryLink{}}
	}
	return topo
}

func (s *Store) ASStats(asn uint32) []api.ASStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.data.ASStats[itoa(asn)]
	if stats == nil {
		return []api.ASStat{}
	}
	return stats
}

func (s *Store) Trend() []api.TrendPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.Trend == nil {
		return []api.TrendPoint{}
	}
	return s.data.Trend
}

// Append records a captured update, making it searchable
func (s *Store) Append(u api.Update) {
	s.mu.Lock()
	s.data.Updates = append(s.data.Updates, u)
	s.mu.Unlock()
}

func (s *Store) RecordDownload(date, dataType string) Download {
	d := Download{Date: date, Type: dataType, RequestedAt: time.Now().UTC()}
	s.mu.Lock()
	s.downloads = append(s.downloads, d)
	s.mu.Unlock()
	return d
}

func (s *Store) Downloads() []Download {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Download(nil), s.downloads...)
}

func (s *Store) dates() []string {
	seen := make(map[string]struct{})
	for d := range s.data.Topology {
		seen[d] = struct{}{}
	}
	for _, p := range s.data.Trend {
		seen[p.Date] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Summary aggregates the whole dataset
func (s *Store) Summary() api.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := api.Summary{Dates: s.dates()}

	ases := make(map[uint32]struct{})
	for asn := range s.data.ASStats {
		if n, err := strconv.ParseUint(asn, 10, 32); err == nil {
			ases[uint32(n)] = struct{}{}
		}
	}
	if len(sum.Dates) > 0 {
		latest := s.data.Topology[sum.Dates[len(sum.Dates)-1]]
		sum.Countries = len(latest.Nodes)
	}
	for _, topo := range s.data.Topology {
		for _, node := range topo.Nodes {
			for _, ref := range node.ASNs {
				ases[ref.ASN] = struct{}{}
			}
		}
	}

	prefixes := make(map[string]struct{})
	var valid int
	for _, u := range s.data.Updates {
		prefixes[u.Prefix] = struct{}{}
		switch u.Type {
		case api.Announcement:
			sum.Announcements++
		case api.Withdrawal:
			sum.Withdrawals++
		}
		if u.Valid {
			valid++
		}
	}
	sum.ASes = len(ases)
	sum.Prefixes = len(prefixes)
	sum.Updates = len(s.data.Updates)
	if sum.Updates > 0 {
		sum.ValidityRatio = float64(valid) / float64(sum.Updates)
	}
	return sum
}

func itoa(asn uint32) string {
	return strconv.FormatUint(uint64(asn), 10)
}
