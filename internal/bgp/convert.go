package bgp

import (
	"fmt"
	"strings"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	gobgpapi "github.com/osrg/gobgp/v3/api"
	"github.com/osrg/gobgp/v3/pkg/apiutil"
	"github.com/osrg/gobgp/v3/pkg/packet/bgp"
)

// Collector names updates received from the local speaker
const Collector = "gobgp"

// toUpdate converts a gobgp path into an update. Withdrawals are never
// valid; announcements are valid when gobgp selected them as best path.
func toUpdate(p *gobgpapi.Path) (api.Update, error) {
	nlri, err := apiutil.GetNativeNlri(p)
	if err != nil {
		return api.Update{}, fmt.Errorf("decode nlri: %w", err)
	}
	attrs, err := apiutil.GetNativePathAttributes(p)
	if err != nil {
		return api.Update{}, fmt.Errorf("decode path attributes: %w", err)
	}

	ts := time.Now()
	if p.Age != nil {
		ts = p.Age.AsTime()
	}

	u := api.Update{
		Timestamp: ts.UTC().Format(api.TimestampLayout),
		Collector: Collector,
		Type:      api.Announcement,
		Prefix:    nlri.String(),
		Valid:     p.Best && !p.IsWithdraw,
	}
	if p.IsWithdraw {
		u.Type = api.Withdrawal
	}
	applyAttributes(&u, attrs)
	return u, nil
}

func applyAttributes(u *api.Update, attrs []bgp.PathAttributeInterface) {
	for _, attr := range attrs {
		switch a := attr.(type) {
		case *bgp.PathAttributeAsPath:
			for _, param := range a.Value {
				u.ASPath = append(u.ASPath, param.GetAS()...)
			}
		case *bgp.PathAttributeNextHop:
			u.NextHop = a.Value.String()
		case *bgp.PathAttributeMpReachNLRI:
			if u.NextHop == "" && len(a.Nexthop) > 0 {
				u.NextHop = a.Nexthop.String()
			}
		}
	}
	if n := len(u.ASPath); n > 0 {
		u.OriginAS = u.ASPath[n-1]
	}
}

func formatRoute(u api.Update, best bool) string {
	var b strings.Builder
	if best {
		b.WriteString("*> ")
	} else {
		b.WriteString("*  ")
	}
	b.WriteString(u.Prefix)
	if u.NextHop != "" {
		b.WriteString(" via ")
		b.WriteString(u.NextHop)
	}
	if len(u.ASPath) > 0 {
		b.WriteString(" path")
		for _, as := range u.ASPath {
			fmt.Fprintf(&b, " %d", as)
		}
	}
	return b.String()
}
