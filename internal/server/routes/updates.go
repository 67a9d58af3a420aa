package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/store"
	"github.com/rs/zerolog/log"
)

// intParam parses an integer query parameter, def when it is absent
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func (h *Handlers) GetTrend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Trend())
}

// SearchUpdates answers 500 on any malformed parameter, like the rest of the
// backend's unexpected errors
func (h *Handlers) SearchUpdates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := store.Query{Prefix: q.Get(api.ParamPrefix)}

	var err error
	if query.Date, err = dateParam(r); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if query.Page, err = intParam(r, api.ParamPage, api.DefaultPage); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if query.PerPage, err = intParam(r, api.ParamPerPage, api.DefaultPerPage); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if raw := q.Get(api.ParamASN); raw != "" {
		asn, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("invalid asn %q", raw))
			return
		}
		query.ASN = uint32(asn)
	}
	writeJSON(w, http.StatusOK, h.Store.Search(query))
}

func (h *Handlers) DownloadData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, dataType := q.Get(api.ParamDate), q.Get(api.ParamType)
	if date == "" || dataType == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter")
		return
	}
	if _, err := time.Parse(api.DateLayout, date); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if dataType != api.DataTypeUpdates && dataType != api.DataTypeRIB {
		writeError(w, http.StatusBadRequest, "invalid data type")
		return
	}

	d := h.Store.RecordDownload(date, dataType)
	log.Info().
		Str("date", d.Date).
		Str("type", d.Type).
		Msg("download requested")
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "download complete"})
}
