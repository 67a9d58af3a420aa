package routes

import (
	"net/http"
	"strconv"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/rs/zerolog/log"
)

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Summary())
}

func (h *Handlers) GetPrefixDetail(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get(api.ParamPrefix)
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter")
		return
	}

	detail := h.Store.PrefixDetail(prefix)
	if h.Speaker != nil {
		rib, err := h.Speaker.Route(r.Context(), prefix)
		if err != nil {
			log.Warn().Err(err).Str("prefix", prefix).Msg("rib lookup failed")
		}
		detail.RIB = rib
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) GetASNDetail(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(api.ParamASN)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter")
		return
	}
	asn, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asn")
		return
	}
	writeJSON(w, http.StatusOK, h.Store.ASNDetail(uint32(asn)))
}

func (h *Handlers) GetPeer(w http.ResponseWriter, r *http.Request) {
	if h.Speaker == nil {
		writeError(w, http.StatusServiceUnavailable, "bgp speaker not configured")
		return
	}
	st, err := h.Speaker.PeerState(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
