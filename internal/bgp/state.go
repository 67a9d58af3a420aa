package bgp

import gobgpapi "github.com/osrg/gobgp/v3/api"

func SessionStateToString(state gobgpapi.PeerState_SessionState) string {
	switch state {
	case gobgpapi.PeerState_UNKNOWN:
		return "UNKNOWN"
	case gobgpapi.PeerState_IDLE:
		return "IDLE"
	case gobgpapi.PeerState_CONNECT:
		return "CONNECT"
	case gobgpapi.PeerState_ACTIVE:
		return "ACTIVE"
	case gobgpapi.PeerState_OPENSENT:
		return "OPENSENT"
	case gobgpapi.PeerState_OPENCONFIRM:
		return "OPENCONFIRM"
	case gobgpapi.PeerState_ESTABLISHED:
		return "ESTABLISHED"
	default:
		return "INVALID"
	}
}
