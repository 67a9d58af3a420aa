package store

import (
	"math"
	"strings"
	"testing"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewFromFile("testdata/dataset.json")
	require.NoError(t, err)
	return s
}

func TestNewFromFile(t *testing.T) {
	s, err := NewFromFile("")
	require.NoError(t, err)
	assert.Empty(t, s.CountryTopology(api.DefaultDate).Nodes)

	_, err = NewFromFile("testdata/missing.json")
	require.Error(t, err)

	_, err = NewFromReader(strings.NewReader("{not json"))
	require.Error(t, err)
}

func TestTopologyAndStats(t *testing.T) {
	s := loadTestStore(t)

	topo := s.CountryTopology("2024-12-01")
	require.Len(t, topo.Nodes, 2)
	assert.Equal(t, "US", topo.Nodes[0].CountryCode)
	assert.Len(t, topo.Links, 1)

	empty := s.CountryTopology("1999-01-01")
	assert.NotNil(t, empty.Nodes)
	assert.Empty(t, empty.Nodes)

	assert.Len(t, s.ASStats(15169), 2)
	assert.NotNil(t, s.ASStats(64512))
	assert.Len(t, s.Trend(), 2)
}

func TestSearch(t *testing.T) {
	s := loadTestStore(t)

	var tests = []struct {
		name         string
		query        Query
		total        int
		totalPages   int
		pagePrefixes []string
	}{
		{"by date", Query{Date: "2024-12-01"}, 4, 1,
			[]string{"8.8.8.0/24", "8.8.4.0/24", "8.8.8.0/24", "1.1.1.0/24"}},
		{"by asn", Query{Date: "2024-12-01", ASN: 15169}, 3, 1,
			[]string{"8.8.8.0/24", "8.8.4.0/24", "8.8.8.0/24"}},
		{"by prefix", Query{Prefix: "8.8.8.0/24"}, 2, 1,
			[]string{"8.8.8.0/24", "8.8.8.0/24"}},
		{"second page", Query{Date: "2024-12-01", Page: 2, PerPage: 3}, 4, 2,
			[]string{"1.1.1.0/24"}},
		{"past the end", Query{Page: 9, PerPage: 2}, 5, 3, []string{}},
		{"no match", Query{ASN: 64512}, 0, 0, []string{}},
		{"huge page size", Query{PerPage: math.MaxInt64}, 5, 1,
			[]string{"9.9.9.0/24", "8.8.8.0/24", "8.8.4.0/24", "8.8.8.0/24", "1.1.1.0/24"}},
		{"huge page", Query{Page: math.MaxInt64/2 + 2, PerPage: 4}, 5, 2, []string{}},
		{"max page", Query{Page: math.MaxInt64, PerPage: 3}, 5, 2, []string{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			page := s.Search(test.query)
			assert.Equal(t, test.total, page.Total)
			assert.Equal(t, test.totalPages, page.TotalPages)

			prefixes := []string{}
			for _, u := range page.Data {
				prefixes = append(prefixes, u.Prefix)
			}
			assert.Equal(t, test.pagePrefixes, prefixes)
		})
	}

	page := s.Search(Query{})
	assert.Equal(t, api.DefaultPage, page.CurrentPage)
}

func TestAppendIsSearchable(t *testing.T) {
	s := New(Dataset{})
	s.Append(api.Update{Timestamp: "2024-12-02 10:00:00", Prefix: "192.0.2.0/24", OriginAS: 64496, Type: api.Announcement})

	page := s.Search(Query{Date: "2024-12-02"})
	require.Len(t, page.Data, 1)
	assert.Equal(t, uint32(64496), page.Data[0].OriginAS)
}

func TestSummary(t *testing.T) {
	s := loadTestStore(t)

	sum := s.Summary()
	assert.Equal(t, []string{"2024-11-30", "2024-12-01"}, sum.Dates)
	assert.Equal(t, 2, sum.Countries)
	assert.Equal(t, 3, sum.ASes)
	assert.Equal(t, 4, sum.Prefixes)
	assert.Equal(t, 5, sum.Updates)
	assert.Equal(t, 4, sum.Announcements)
	assert.Equal(t, 1, sum.Withdrawals)
	assert.InDelta(t, 0.6, sum.ValidityRatio, 1e-9)
}

func TestPrefixDetail(t *testing.T) {
	s := loadTestStore(t)

	d := s.PrefixDetail("8.8.8.0/24")
	assert.Equal(t, []uint32{15169}, d.OriginASs)
	assert.Len(t, d.Updates, 2)
}

func TestASNDetail(t *testing.T) {
	s := loadTestStore(t)

	d := s.ASNDetail(3356)
	assert.Equal(t, "LEVEL3", d.ASName)
	assert.Equal(t, "US", d.CountryCode)
	assert.Equal(t, []uint32{3320, 13335, 15169}, d.Neighbors)
	assert.Empty(t, d.Prefixes)

	g := s.ASNDetail(15169)
	assert.Equal(t, []string{"8.8.8.0/24", "8.8.4.0/24"}, g.Prefixes)
	assert.Len(t, g.Stats, 2)
}

func TestASTopology(t *testing.T) {
	s := loadTestStore(t)

	topo := s.ASTopology()
	asns := []uint32{}
	for _, n := range topo.Nodes {
		asns = append(asns, n.ASN)
	}
	assert.Equal(t, []uint32{3320, 3356, 13335, 15169, 19281}, asns)

	assert.Equal(t, []api.ASLink{
		{Source: 3320, Target: 3356, Weight: 1},
		{Source: 3320, Target: 19281, Weight: 1},
		{Source: 3356, Target: 13335, Weight: 1},
		{Source: 3356, Target: 15169, Weight: 2},
	}, topo.Links)
}
