package server

import (
	"net"
	"strconv"
	"time"

	em "github.com/BasedDevelopment/eve/pkg/middleware"
	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/config"
	"github.com/ezrizhu/bgpdash/internal/server/routes"
	"github.com/go-chi/chi/v5"
	cm "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the backend router. A nil gatherer serves the default
// prometheus registry on /metrics.
func Handler(cfg config.ServerConfig, h *routes.Handlers, gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewMux()

	//Middlewares
	if cfg.BehindProxy {
		r.Use(cm.RealIP)
	}
	r.Use(cm.RequestID)
	r.Use(em.Logger)
	r.Use(cm.GetHead)
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))
	}
	r.Use(cm.AllowContentType("application/json"))
	r.Use(cm.CleanPath)
	r.Use(cm.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(cm.Heartbeat("/"))
	r.Use(em.Recoverer)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get(api.CountryTopologyRoute, h.GetCountryTopology)
	r.Get(api.ASStatsRoute+"/{asn}", h.GetASStats)
	r.Get(api.TrendRoute, h.GetTrend)
	r.Get(api.SearchRoute, h.SearchUpdates)
	r.Get(api.DownloadRoute, h.DownloadData)
	r.Get(api.SummaryRoute, h.GetSummary)
	r.Get(api.PrefixDetailRoute, h.GetPrefixDetail)
	r.Get(api.ASNDetailRoute, h.GetASNDetail)
	r.Get(api.ASTopologyRoute, h.GetASTopology)
	r.Get(api.PeerRoute, h.GetPeer)
	r.Get(api.SocketRoute, h.Socket)

	return r
}

// Addr is the listen address of cfg
func Addr(cfg config.ServerConfig) string {
	return net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port))
}
