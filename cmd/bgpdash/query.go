package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/api/client"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// paramFlags maps query parameters to the flags that set them
var paramFlags = map[string]string{
	api.ParamDate:    "date",
	api.ParamPrefix:  "prefix",
	api.ParamASN:     "asn",
	api.ParamPage:    "page",
	api.ParamPerPage: "per-page",
	api.ParamType:    "type",
}

// params collects the query parameters whose flags were set on cmd
func params(cmd *cobra.Command) client.Params {
	p := client.Params{}
	for param, flag := range paramFlags {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			p[param] = f.Value.String()
		}
	}
	return p
}

type queryFn func(ctx context.Context, c *client.Client, cmd *cobra.Command, args []string) (any, error)

// query builds a command that runs fn against the backend and prints its
// result as JSON
func query(use, short string, args cobra.PositionalArgs, fn queryFn, flags ...string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: withSignals(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			res, err := fn(ctx, c, cmd, args)
			if err != nil {
				return err
			}
			return printJSON(res)
		}),
	}
	for _, flag := range flags {
		switch flag {
		case "page", "per-page":
			cmd.Flags().Int(flag, 0, flag+" of the result")
		default:
			cmd.Flags().String(flag, "", flag+" parameter")
		}
	}
	return cmd
}

func parseASN(s string) (uint32, error) {
	asn, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid asn %q: %w", s, err)
	}
	return uint32(asn), nil
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Trigger the download of a day of updates or RIB data",
	Args:  cobra.NoArgs,
	RunE:  withSignals(downloadEntrypoint),
}

func downloadEntrypoint(ctx context.Context, cmd *cobra.Command, _ []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		res, err := c.DownloadData(ctx, params(cmd))
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	d, err := c.ExportData(ctx, params(cmd))
	if err != nil {
		return err
	}
	if output == "-" {
		output = ""
		if name := d.Filename(); name != "" {
			output = filepath.Base(name)
		}
	}
	if output == "" || output == "." || output == "/" {
		return fmt.Errorf("backend sent no file name, pass one with --output")
	}
	if err := os.WriteFile(output, d.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	log.Info().Str("file", output).Int("bytes", len(d.Body)).Msg("export written")
	return nil
}

var detailCmd = &cobra.Command{
	Use:   "detail",
	Short: "Show prefix or AS details",
}

func init() {
	rootCmd.AddCommand(
		query("topology", "Show the country topology", cobra.NoArgs,
			func(ctx context.Context, c *client.Client, cmd *cobra.Command, _ []string) (any, error) {
				return c.GetCountryTopology(ctx, params(cmd))
			}, "date"),
		query("as-stats ASN", "Show daily statistics of an AS", cobra.ExactArgs(1),
			func(ctx context.Context, c *client.Client, cmd *cobra.Command, args []string) (any, error) {
				asn, err := parseASN(args[0])
				if err != nil {
					return nil, err
				}
				return c.GetAsStats(ctx, asn, params(cmd))
			}, "date"),
		query("trend", "Show the global prefix trend", cobra.NoArgs,
			func(ctx context.Context, c *client.Client, cmd *cobra.Command, _ []string) (any, error) {
				return c.GetPrefixTrend(ctx, params(cmd))
			}, "date"),
		query("search", "Search BGP updates", cobra.NoArgs,
			func(ctx context.Context, c *client.Client, cmd *cobra.Command, _ []string) (any, error) {
				return c.SearchUpdates(ctx, params(cmd))
			}, "date", "prefix", "asn", "page", "per-page"),
		query("summary", "Show the dataset summary", cobra.NoArgs,
			func(ctx context.Context, c *client.Client, cmd *cobra.Command, _ []string) (any, error) {
				return c.GetSummary(ctx, params(cmd))
			}),
		query("as-topology", "Show the AS level topology", cobra.NoArgs,
			func(ctx context.Context, c *client.Client, cmd *cobra.Command, _ []string) (any, error) {
				return c.GetAsTopology(ctx, params(cmd))
			}),
		downloadCmd,
		detailCmd,
	)

	detailCmd.AddCommand(
		query("prefix PREFIX", "Show details of a prefix", cobra.ExactArgs(1),
			func(ctx context.Context, c *client.Client, cmd *cobra.Command, args []string) (any, error) {
				p := params(cmd)
				p[api.ParamPrefix] = args[0]
				return c.GetPrefixDetail(ctx, p)
			}),
		query("asn ASN", "Show details of an AS", cobra.ExactArgs(1),
			func(ctx context.Context, c *client.Client, cmd *cobra.Command, args []string) (any, error) {
				if _, err := parseASN(args[0]); err != nil {
					return nil, err
				}
				p := params(cmd)
				p[api.ParamASN] = args[0]
				return c.GetAsnDetail(ctx, p)
			}),
	)

	downloadCmd.Flags().String("date", "", "day to download ("+api.DateLayout+")")
	downloadCmd.Flags().String("type", "", "data type ("+api.DataTypeUpdates+" or "+api.DataTypeRIB+")")
	downloadCmd.Flags().StringP("output", "o", "", "write the exported file here, - for the name sent by the backend")
}
