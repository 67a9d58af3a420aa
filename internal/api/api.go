// Package api holds the routes, parameters and payload types shared by the
// dashboard client and the reference backend
package api

const (
	// DefaultServerAddress is the default listen address of the backend
	DefaultServerAddress = "localhost:5000"

	// DateLayout is the layout of every date parameter and date field
	DateLayout = "2006-01-02"

	// TimestampLayout is the layout of update timestamps
	TimestampLayout = "2006-01-02 15:04:05"

	// DefaultDate is used by the backend when no date is requested
	DefaultDate = "2024-12-01"

	DefaultPage    = 1
	DefaultPerPage = 50

	// MaxPerPage caps the page size of an update search
	MaxPerPage = 1000
)

// Query parameters understood by the backend
const (
	ParamDate    = "date"
	ParamPrefix  = "prefix"
	ParamASN     = "asn"
	ParamPage    = "page"
	ParamPerPage = "per_page"
	ParamType    = "type"
)

// Data types accepted by the download route
const (
	DataTypeUpdates = "updates"
	DataTypeRIB     = "rib"
)

// AS topology routes
const (
	CountryTopologyRoute = "/topology/country"
	ASStatsRoute         = "/topology/as"
)

// BGP update routes
const (
	TrendRoute  = "/updates/trend"
	SearchRoute = "/updates/search"
)

// DownloadRoute triggers the download of a day of updates or RIB data
const DownloadRoute = "/download/data"

// Summary and detail routes
const (
	SummaryRoute      = "/summary"
	PrefixDetailRoute = "/detail/prefix"
	ASNDetailRoute    = "/detail/asn"
	ASTopologyRoute   = "/as/topology"
)

// SocketRoute is the websocket namespace of the live capture
const SocketRoute = "/bgp"

// PeerRoute reports the session state of the reference backend's BGP peer
const PeerRoute = "/peer"
