package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/go-chi/chi/v5"
)

// dateParam returns the requested date, DefaultDate if absent
func dateParam(r *http.Request) (string, error) {
	date := r.URL.Query().Get(api.ParamDate)
	if date == "" {
		return api.DefaultDate, nil
	}
	if _, err := time.Parse(api.DateLayout, date); err != nil {
		return "", err
	}
	return date, nil
}

func (h *Handlers) GetCountryTopology(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Store.CountryTopology(date))
}

func (h *Handlers) GetASStats(w http.ResponseWriter, r *http.Request) {
	asn, err := strconv.ParseUint(chi.URLParam(r, "asn"), 10, 32)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, h.Store.ASStats(uint32(asn)))
}

func (h *Handlers) GetASTopology(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.ASTopology())
}
