package api

import (
	"time"
)

// ErrorResponse is the body of every non-2xx response of the backend
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is returned by routes that only acknowledge an action
type MessageResponse struct {
	Message string `json:"message"`
}

// ASRef names an autonomous system
type ASRef struct {
	ASN    uint32 `json:"asn"`
	ASName string `json:"as_name"`
}

// CountryNode aggregates all ASes registered in one country
type CountryNode struct {
	CountryCode      string  `json:"country_code"`
	CountryName      string  `json:"country_name"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	ASCount          int     `json:"as_count"`
	TotalAnnounced   int     `json:"total_announced"`
	TotalValid       int     `json:"total_valid"`
	AvgValidityRatio float64 `json:"avg_validity_ratio"`
	ASNs             []ASRef `json:"asns"`
}

// CountryLink is a weighted adjacency between two countries, keyed by
// country code
type CountryLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

type CountryTopology struct {
	Nodes []CountryNode `json:"nodes"`
	Links []CountryLink `json:"links"`
}

// ASStat is one day of announcement statistics of an AS
type ASStat struct {
	Date               string  `json:"date"`
	AnnouncedPrefixes  int     `json:"announced_prefixes"`
	ValidAnnouncements int     `json:"valid_announcements"`
	ValidityRatio      float64 `json:"validity_ratio"`
}

// TrendPoint is one day of the global prefix trend
type TrendPoint struct {
	Date               string  `json:"date"`
	Announcements      int     `json:"announcements"`
	ValidAnnouncements int     `json:"valid_announcements"`
	Withdrawals        int     `json:"withdrawals"`
	ValidityRatio      float64 `json:"validity_ratio"`
	NetChange          int     `json:"net_change"`
}

// UpdateType distinguishes announcements from withdrawals
type UpdateType int

const (
	Announcement UpdateType = 1
	Withdrawal   UpdateType = 2
)

func (t UpdateType) String() string {
	switch t {
	case Announcement:
		return "announcement"
	case Withdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// Update is a single BGP update as seen by a route collector
type Update struct {
	Timestamp string     `json:"timestamp"`
	Collector string     `json:"collector"`
	Type      UpdateType `json:"type"`
	Prefix    string     `json:"prefix"`
	OriginAS  uint32     `json:"origin_as"`
	ASPath    []uint32   `json:"as_path"`
	NextHop   string     `json:"next_hop"`
	Valid     bool       `json:"valid"`
}

// UpdatePage is one page of an update search
type UpdatePage struct {
	Total       int      `json:"total"`
	TotalPages  int      `json:"total_pages"`
	CurrentPage int      `json:"current_page"`
	Data        []Update `json:"data"`
}

// Summary describes the dataset as a whole
type Summary struct {
	Dates         []string `json:"dates"`
	Countries     int      `json:"countries"`
	ASes          int      `json:"ases"`
	Prefixes      int      `json:"prefixes"`
	Updates       int      `json:"updates"`
	Announcements int      `json:"announcements"`
	Withdrawals   int      `json:"withdrawals"`
	ValidityRatio float64  `json:"validity_ratio"`
}

// PrefixDetail collects everything known about one prefix
type PrefixDetail struct {
	Prefix    string   `json:"prefix"`
	OriginASs []uint32 `json:"origin_as"`
	Updates   []Update `json:"updates"`
	// RIB lists matching destinations in the live BGP table, if a speaker runs
	RIB []string `json:"rib,omitempty"`
}

// ASNDetail collects everything known about one AS
type ASNDetail struct {
	ASRef
	CountryCode string   `json:"country_code,omitempty"`
	Stats       []ASStat `json:"stats"`
	Prefixes    []string `json:"prefixes"`
	Neighbors   []uint32 `json:"neighbors"`
}

// ASLink is an adjacency between two ASes derived from AS paths
type ASLink struct {
	Source uint32 `json:"source"`
	Target uint32 `json:"target"`
	Weight int    `json:"weight"`
}

type ASTopology struct {
	Nodes []ASRef  `json:"nodes"`
	Links []ASLink `json:"links"`
}

// Filters restrict a live capture. Both fields are optional.
type Filters struct {
	ASN    uint32 `json:"asn,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// CaptureStatus is the payload of the capture_status event
type CaptureStatus struct {
	Running   bool       `json:"running"`
	Filters   *Filters   `json:"filters,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Updates   uint64     `json:"updates"`
}

// PeerStatus is the state of a BGP session
type PeerStatus struct {
	Address  string `json:"address"`
	ASN      uint32 `json:"asn"`
	State    string `json:"state"`
	Flops    uint32 `json:"flops"`
	Received uint64 `json:"received"`
	Sent     uint64 `json:"sent"`
}
