// Package cmd: crawl command.
// Runs the pipeline over the given URLs: fetch → normalize → render.
// By default the prompt addendum goes to stdout; a format flag writes a report
// file instead.
package cmd

import (
	"fmt"
	"os"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/gaurav-prasanna/docpipe/core/fetch"
	"github.com/gaurav-prasanna/docpipe/core/output"
	"github.com/gaurav-prasanna/docpipe/core/render"
	"github.com/gaurav-prasanna/docpipe/crawl"
	"github.com/spf13/cobra"
)

// Flag variables.
var (
	flagCap         int
	flagConcurrency int
	flagPDF         bool
	flagMarkdown    bool
	flagJSON        bool
	flagOutputDir   string
	flagFollow      bool
	flagMaxPages    int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>...",
	Short: "Fetch URLs and print the normalized prompt addendum",
	Long: `Crawl fetches each URL, classifies failures (restricted scheme, CORS,
network, HTTP status), normalizes successful bodies to plain text and prints
one block per URL followed by a summary line.

Examples:
  docpipe crawl https://pkg.go.dev/net/http
  docpipe crawl https://go.dev/doc/effective_go https://go.dev/ref/spec --cap 1500
  docpipe crawl https://docs.example.com --json --output_dir ./out
  docpipe crawl https://docs.example.com --follow --max-pages 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&flagCap, "cap", 0, "Maximum characters kept per page (default 3000, negative disables)")
	crawlCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Parallel fetches (default 4)")

	// Output format flags (mutually exclusive).
	crawlCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Write a PDF report")
	crawlCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Write a Markdown report")
	crawlCmd.Flags().BoolVar(&flagJSON, "json", false, "Write a JSON report")

	crawlCmd.Flags().BoolVar(&flagFollow, "follow", false, "Also crawl internal pages found via sitemap.xml or links")
	crawlCmd.Flags().IntVar(&flagMaxPages, "max-pages", crawl.DefaultMaxPages, "Page limit per URL with --follow")

	crawlCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Report directory (default: current directory)")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	renderer, err := selectRenderer()
	if err != nil {
		return err
	}
	if flagCap != 0 {
		cfg.Pipeline.CrawlCap = flagCap
	}
	if flagConcurrency > 0 {
		cfg.Pipeline.Concurrency = flagConcurrency
	}

	urls := args
	if flagFollow {
		urls, err = discover(cmd, args)
		if err != nil {
			return err
		}
	}

	summary, err := newPipeline().Crawl(cmd.Context(), urls)
	if err != nil {
		return err
	}

	data, err := renderer.Render(summary)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	if _, ok := renderer.(*render.PromptRenderer); ok {
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	path, err := writer.WriteReport(args[0], data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	fmt.Fprintln(os.Stdout, render.SummaryLine(summary))
	return nil
}

// discover expands each argument into the internal pages it links to.
func discover(cmd *cobra.Command, args []string) ([]string, error) {
	fetcher := fetch.New(cfg.Fetch, logger)
	var urls []string
	for _, base := range args {
		if !crawl.IsAbsolute(base) {
			return nil, fmt.Errorf("invalid URL %q", base)
		}
		found, err := crawl.Discover(cmd.Context(), base, fetcher, flagMaxPages)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("url", base).Int("pages", len(found)).Msg("Discovered pages")
		urls = append(urls, found...)
	}
	return urls, nil
}

// selectRenderer picks the renderer from the format flags. No flag means the
// prompt addendum.
func selectRenderer() (core.Renderer, error) {
	formatCount := 0
	for _, set := range []bool{flagPDF, flagMarkdown, flagJSON} {
		if set {
			formatCount++
		}
	}
	if formatCount > 1 {
		return nil, fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	switch {
	case flagMarkdown:
		return render.NewMarkdownRenderer(), nil
	case flagJSON:
		return render.NewJSONRenderer(), nil
	case flagPDF:
		return render.NewPDFRenderer(), nil
	default:
		return render.NewPromptRenderer(), nil
	}
}
