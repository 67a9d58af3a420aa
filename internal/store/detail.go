package store

import (
	"sort"

	"github.com/ezrizhu/bgpdash/internal/api"
)

func (s *Store) PrefixDetail(prefix string) api.PrefixDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	detail := api.PrefixDetail{Prefix: prefix, OriginASs: []uint32{}, Updates: []api.Update{}}
	origins := make(map[uint32]struct{})
	for _, u := range s.data.Updates {
		if u.Prefix != prefix {
			continue
		}
		detail.Updates = append(detail.Updates, u)
		if _, ok := origins[u.OriginAS]; !ok && u.OriginAS != 0 {
			origins[u.OriginAS] = struct{}{}
			detail.OriginASs = append(detail.OriginASs, u.OriginAS)
		}
	}
	return detail
}

// asRef looks up the name and country of asn in the most recent topology
// that lists it
func (s *Store) asRef(asn uint32) (api.ASRef, string) {
	dates := s.dates()
	for i := len(dates) - 1; i >= 0; i-- {
		for _, node := range s.data.Topology[dates[i]].Nodes {
			for _, ref := range node.ASNs {
				if ref.ASN == asn {
					return ref, node.CountryCode
				}
			}
		}
	}
	return api.ASRef{ASN: asn}, ""
}

func (s *Store) ASNDetail(asn uint32) api.ASNDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, country := s.asRef(asn)
	detail := api.ASNDetail{
		ASRef:       ref,
		CountryCode: country,
		Stats:       s.data.ASStats[itoa(asn)],
		Prefixes:    []string{},
		Neighbors:   []uint32{},
	}
	if detail.Stats == nil {
		detail.Stats = []api.ASStat{}
	}

	prefixes := make(map[string]struct{})
	neighbors := make(map[uint32]struct{})
	for _, u := range s.data.Updates {
		if u.OriginAS == asn {
			if _, ok := prefixes[u.Prefix]; !ok {
				prefixes[u.Prefix] = struct{}{}
				detail.Prefixes = append(detail.Prefixes, u.Prefix)
			}
		}
		path := dedupPath(u.ASPath)
		for i, hop := range path {
			if hop != asn {
				continue
			}
			if i > 0 {
				neighbors[path[i-1]] = struct{}{}
			}
			if i < len(path)-1 {
				neighbors[path[i+1]] = struct{}{}
			}
		}
	}
	for n := range neighbors {
		detail.Neighbors = append(detail.Neighbors, n)
	}
	sort.Slice(detail.Neighbors, func(i, j int) bool { return detail.Neighbors[i] < detail.Neighbors[j] })
	return detail
}

// ASTopology derives the AS adjacency graph from the AS paths of all
// announcements. Prepending is collapsed.
func (s *Store) ASTopology() api.ASTopology {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type edge struct{ a, b uint32 }
	weights := make(map[edge]int)
	nodes := make(map[uint32]struct{})

	for _, u := range s.data.Updates {
		if u.Type != api.Announcement {
			continue
		}
		path := dedupPath(u.ASPath)
		for i, hop := range path {
			nodes[hop] = struct{}{}
			if i > 0 {
				weights[edge{path[i-1], hop}]++
			}
		}
	}

	topo := api.ASTopology{Nodes: make([]api.ASRef, 0, len(nodes)), Links: make([]api.ASLink, 0, len(weights))}
	for asn := range nodes {
		ref, _ := s.asRef(asn)
		topo.Nodes = append(topo.Nodes, ref)
	}
	for e, w := range weights {
		topo.Links = append(topo.Links, api.ASLink{Source: e.a, Target: e.b, Weight: w})
	}
	sort.Slice(topo.Nodes, func(i, j int) bool { return topo.Nodes[i].ASN < topo.Nodes[j].ASN })
	sort.Slice(topo.Links, func(i, j int) bool {
		if topo.Links[i].Source != topo.Links[j].Source {
			return topo.Links[i].Source < topo.Links[j].Source
		}
		return topo.Links[i].Target < topo.Links[j].Target
	})
	return topo
}

func dedupPath(path []uint32) []uint32 {
	out := make([]uint32, 0, len(path))
	for _, hop := range path {
		if len(out) > 0 && out[len(out)-1] == hop {
			continue
		}
		out = append(out, hop)
	}
	return out
}
