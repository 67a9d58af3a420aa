package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/live"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const startTimeout = 10 * time.Second

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Start a live capture and print events until interrupted",
	Args:  cobra.NoArgs,
	RunE:  withSignals(liveEntrypoint),
}

func init() {
	liveCmd.Flags().Uint32("asn", 0, "only capture updates originated by this AS")
	liveCmd.Flags().String("prefix", "", "only capture updates within this prefix")
	liveCmd.Flags().Bool("basic", false, "backend does not acknowledge connections or report status")
	rootCmd.AddCommand(liveCmd)
}

func liveEntrypoint(ctx context.Context, cmd *cobra.Command, _ []string) error {
	url, err := cfg.API.WebSocketURL()
	if err != nil {
		return fmt.Errorf("socket url: %w", err)
	}

	opts := live.Options{}
	if basic, _ := cmd.Flags().GetBool("basic"); basic {
		opts.Events = live.BasicEvents
	}
	sess, conn, err := live.Connect(ctx, url, opts)
	if err != nil {
		return err
	}
	defer sess.Disconnect()

	events, cancel := sess.Events(0)
	defer cancel()

	var filters *api.Filters
	asn, _ := cmd.Flags().GetUint32("asn")
	prefix, _ := cmd.Flags().GetString("prefix")
	if asn != 0 || prefix != "" {
		filters = &api.Filters{ASN: asn, Prefix: prefix}
	}

	startCtx, stop := context.WithTimeout(ctx, startTimeout)
	defer stop()
	if _, err := sess.StartCaptureWait(startCtx, filters); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	log.Info().Str("url", url).Msg("capture started")

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			frame, err := live.Encode(ev.Name, ev.Data)
			if err != nil {
				continue
			}
			fmt.Fprintln(os.Stdout, string(frame))
		case <-conn.Done():
			return conn.Err()
		case <-ctx.Done():
			if err := sess.StopCapture(); err != nil {
				log.Warn().Err(err).Msg("failed to stop capture")
			}
			return nil
		}
	}
}
