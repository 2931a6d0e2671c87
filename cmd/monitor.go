// Monitor commands manage the persisted list of monitored URLs and run the
// periodic crawler.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaurav-prasanna/docpipe/core/fetch"
	"github.com/gaurav-prasanna/docpipe/core/normalize"
	"github.com/gaurav-prasanna/docpipe/core/output"
	"github.com/gaurav-prasanna/docpipe/monitor"
	"github.com/gaurav-prasanna/docpipe/store"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var flagInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch documentation URLs for content changes",
}

var monitorAddCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Start monitoring URLs and crawl them once",
	Args:  cobra.MinimumNArgs(1),
	RunE: withMonitor(func(cmd *cobra.Command, args []string, m *monitor.Monitor) error {
		for _, u := range args {
			rec, err := m.AddAndCrawl(cmd.Context(), u)
			if rec == nil {
				pterm.Error.Printfln("%s: %v", u, err)
				continue
			}
			if err != nil {
				pterm.Warning.Printfln("%s: %v", u, err)
			}
			pterm.Success.Printfln("Monitoring %s (%s), status %s", rec.URL, rec.ID, rec.Status)
		}
		return nil
	}),
}

var monitorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored URLs",
	Args:  cobra.NoArgs,
	RunE: withMonitor(func(cmd *cobra.Command, _ []string, m *monitor.Monitor) error {
		urls, err := m.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			pterm.Info.Println("No URLs monitored")
			return nil
		}

		table := pterm.TableData{{"ID", "URL", "Status", "Last crawled", "Changes", "Errors"}}
		for _, u := range urls {
			table = append(table, []string{
				u.ID, u.URL, string(u.Status), formatTime(u.LastCrawled),
				fmt.Sprint(u.ChangeCount), fmt.Sprint(u.ErrorCount),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
			return err
		}

		stats, err := m.Stats(cmd.Context())
		if err != nil {
			return err
		}
		pterm.Info.Printfln("%d total: %d online, %d error, %d pending", stats.Total, stats.Online, stats.Error, stats.Pending)
		return nil
	}),
}

var monitorRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Stop monitoring a URL",
	Args:  cobra.ExactArgs(1),
	RunE: withMonitor(func(cmd *cobra.Command, args []string, m *monitor.Monitor) error {
		if err := m.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		pterm.Success.Printfln("Removed %s", args[0])
		return nil
	}),
}

var monitorCrawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl every monitored URL once",
	Args:  cobra.NoArgs,
	RunE: withMonitor(func(cmd *cobra.Command, _ []string, m *monitor.Monitor) error {
		report, err := m.CrawlAll(cmd.Context())
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	}),
}

var monitorRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl monitored URLs on an interval until interrupted",
	Args:  cobra.NoArgs,
	RunE: withMonitor(func(cmd *cobra.Command, _ []string, m *monitor.Monitor) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := m.CrawlAll(ctx)
		if err != nil {
			return err
		}
		printReport(report)

		if err := m.Start(ctx); err != nil {
			return err
		}
		pterm.Info.Printfln("Monitoring every %s, press Ctrl+C to stop", cfg.Monitor.Interval)
		<-ctx.Done()
		m.Stop()
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.AddCommand(monitorAddCmd, monitorListCmd, monitorRemoveCmd, monitorCrawlCmd, monitorRunCmd)
	monitorRunCmd.Flags().DurationVar(&flagInterval, "interval", 0, "Crawl interval (default 5m)")
}

// withMonitor opens the store, builds a Monitor and closes the store afterwards.
func withMonitor(fn func(cmd *cobra.Command, args []string, m *monitor.Monitor) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if flagInterval > 0 {
			cfg.Monitor.Interval = flagInterval
		}

		var snapshots monitor.SnapshotWriter
		if cfg.Monitor.SnapshotDir != "" {
			w, err := output.New(cfg.Monitor.SnapshotDir)
			if err != nil {
				return fmt.Errorf("initializing snapshot writer: %w", err)
			}
			snapshots = w
		}

		m := monitor.New(st, fetch.New(cfg.Fetch, logger), normalize.New(cfg.Normalize, logger), snapshots, cfg.Monitor, logger)
		m.OnChange = func(e monitor.ChangeEvent) {
			pterm.Warning.Printfln("Documentation update detected: %s (change #%d)", e.URL.URL, e.URL.ChangeCount)
		}
		return fn(cmd, args, m)
	}
}

func printReport(r monitor.Report) {
	pterm.Info.Printfln("Crawled %d, changed %d, failed %d, skipped %d", r.Crawled, r.Changed, r.Failed, r.Skipped)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

var _ monitor.Store = (*store.Store)(nil)
