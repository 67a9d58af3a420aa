package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BasedDevelopment/eve/pkg/fwdlog"
	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/bgp"
	"github.com/ezrizhu/bgpdash/internal/capture"
	"github.com/ezrizhu/bgpdash/internal/server"
	"github.com/ezrizhu/bgpdash/internal/server/routes"
	"github.com/ezrizhu/bgpdash/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference backend",
	Args:  cobra.NoArgs,
	RunE:  withSignals(serveEntrypoint),
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port")
	serveCmd.Flags().String("dataset", "", "dataset file served by the backend")
	rootCmd.AddCommand(serveCmd)
}

func serveEntrypoint(ctx context.Context, cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("dataset") {
		cfg.Server.Dataset, _ = cmd.Flags().GetString("dataset")
	}

	s, err := store.NewFromFile(cfg.Server.Dataset)
	if err != nil {
		return err
	}
	capturer := capture.New(s.Append)
	defer capturer.Close()

	h := &routes.Handlers{Store: s, Capture: capturer}

	var speaker *bgp.Speaker
	if cfg.BGP.Enabled() {
		speaker = bgp.New(cfg.BGP, cfg.Peer)
		if err := speaker.Start(ctx); err != nil {
			return err
		}
		if err := speaker.Watch(ctx, func(u api.Update) { capturer.Publish(u) }); err != nil {
			return err
		}
		h.Speaker = speaker
	}

	srv := &http.Server{
		Addr:     server.Addr(cfg.Server),
		Handler:  server.Handler(cfg.Server, h, nil),
		ErrorLog: fwdlog.Logger(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().
		Str("addr", srv.Addr).
		Str("dataset", cfg.Server.Dataset).
		Bool("bgp", speaker != nil).
		Str("version", version).
		Msg("Started backend")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Stopping")
	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if speaker != nil {
		if err := speaker.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully stop bgp instance")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Graceful Shutdown Successful, bye")
	return nil
}
