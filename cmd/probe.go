package cmd

import (
	"fmt"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/gaurav-prasanna/docpipe/core/extract"
	"github.com/gaurav-prasanna/docpipe/core/render"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>...",
	Short: "Check whether URLs are readable and look like documentation",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	p := newPipeline()

	table := pterm.TableData{{"URL", "Accessible", "Docs", "Type", "Title / Reason"}}
	for _, u := range args {
		res := p.TestAccessibility(cmd.Context(), u)

		note := ""
		switch {
		case res.Accessible && res.ContentType == core.ContentHTML:
			note = extract.Title(res.Outcome.Body)
		case !res.Accessible:
			note = fmt.Sprintf("%s: %s", render.Tag(res.Outcome), render.Describe(res.Outcome))
		}
		table = append(table, []string{
			u,
			yesNo(res.Accessible),
			yesNo(res.LooksLikeDocumentation),
			res.ContentType.String(),
			note,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func yesNo(b bool) string {
	if b {
		return pterm.Green("yes")
	}
	return pterm.Red("no")
}
