// Package routes implements the REST handlers and the /bgp websocket
// namespace of the reference backend
package routes

import (
	"context"
	"net/http"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/capture"
	"github.com/ezrizhu/bgpdash/internal/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var j = jsoniter.ConfigCompatibleWithStandardLibrary

// Speaker is the BGP speaker consulted for RIB lookups and peer state
type Speaker interface {
	Route(ctx context.Context, prefix string) ([]string, error)
	PeerState(ctx context.Context) (api.PeerStatus, error)
}

// Handlers serves the backend routes. Speaker may be nil.
type Handlers struct {
	Store   *store.Store
	Capture *capture.Capturer
	Speaker Speaker
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := j.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
