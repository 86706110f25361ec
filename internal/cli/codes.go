package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Goden-Gun/fault-lib/internal/server"
	"github.com/Goden-Gun/fault-lib/pkg/bootstrap"
	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/diagnostics"
)

func newCodesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Query the error code registry",
	}
	cmd.AddCommand(newCodesListCmd(), newCodesGetCmd(), newCodesCountCmd(root))
	return cmd
}

func newCodesListCmd() *cobra.Command {
	var output, band string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered error codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := codes.All()
			if band != "" {
				b, ok := codes.ParseBand(band)
				if !ok {
					return fmt.Errorf("unknown band %q", band)
				}
				list = codes.ByBand(b)
			}
			return render(cmd.OutOrStdout(), output, list)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	cmd.Flags().StringVar(&band, "band", "", "filter by band name or leading digit")
	return cmd
}

func newCodesGetCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <code|name>",
		Short: "Show one error code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := server.Resolve(args[0])
			if err != nil {
				return fmt.Errorf("error code %q is not registered", args[0])
			}
			return render(cmd.OutOrStdout(), output, []codes.ErrorCode{code})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func newCodesCountCmd(root *rootOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "count <code|name>",
		Short: "Show how often a code was translated on a day (requires redis)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := server.Resolve(args[0])
			if err != nil {
				return fmt.Errorf("error code %q is not registered", args[0])
			}
			at := time.Now().UTC()
			if day != "" {
				if at, err = time.Parse("2006-01-02", day); err != nil {
					return fmt.Errorf("invalid --day %q: %w", day, err)
				}
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled() {
				return fmt.Errorf("redis is not configured")
			}
			ctx := cmd.Context()
			client, err := bootstrap.InitRedis(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			counter := diagnostics.NewRedisCounter(client, cfg.Diagnostics.CounterPrefix, cfg.Diagnostics.CounterTTL.Duration())
			n, err := counter.Count(ctx, code.Code, at)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d\n", code.Code, code.Name, at.Format("2006-01-02"), n)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "UTC day as YYYY-MM-DD (default today)")
	return cmd
}

func render(w io.Writer, format string, list []codes.ErrorCode) error {
	switch format {
	case "", "table":
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(tw, "CODE\tNAME\tSTATUS\tBAND\tMESSAGE")
		for _, c := range list {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", c.Code, c.Name, c.Status, c.Band(), c.Message)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}
