package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/sheetlink/internal/app"
)

// withApp resolves the configuration, opens the app and runs fn.
func withApp(cmd *cobra.Command, o *options, fn func(*app.App) error) error {
	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return fn(a)
}

func newRefsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs",
		Short: "Print the page references of every finding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, o, func(a *app.App) error {
				return a.Refs(cmd.Context(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&o.format, "format", "markdown", "Output format: markdown or json")
	return cmd
}

func newReportCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the Markdown review report with page cross-links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, o, func(a *app.App) error {
				out, err := a.Report(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.output, "output", "report.md", "Path to write the Markdown report")
	f.StringVar(&o.pdfOut, "pdf", "", "Also render the report to this PDF path")
	f.StringVar(&o.docLink, "doc.link", "", "Link target for page cross-links (default: document file name)")
	f.StringVar(&o.pdfFont, "pdf.font", "", "UTF-8 TrueType font for the PDF rendition (env PDF_FONT)")
	return cmd
}

func newHighlightCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highlight",
		Short: "Scroll to a page and mark the spans matching a locator text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, o, func(a *app.App) error {
				_, err := a.Highlight(cmd.Context(), cmd.OutOrStdout())
				return err
			})
		},
	}
	d := app.DefaultConfig().Highlight
	f := cmd.Flags()
	f.IntVar(&o.page, "page", 0, "1-based page to highlight")
	f.StringVar(&o.text, "text", "", "Locator text to search for")
	f.IntVar(&o.finding, "finding", 0, "Take page and text from this finding's first reference")
	f.StringVar(&o.htmlOut, "html.out", "", "Write the highlighted HTML snapshot here")
	f.Float64Var(&o.threshold, "highlight.threshold", d.OverlapThreshold, "Token overlap fraction a span must reach")
	f.IntVar(&o.minTokenRunes, "highlight.minTokenRunes", d.MinTokenRunes, "Shortest word counted as a locator token")
	f.DurationVar(&o.scrollInterval, "highlight.scrollInterval", d.ScrollInterval, "Delay between attempts to reach a page")
	f.IntVar(&o.scrollAttempts, "highlight.scrollAttempts", d.ScrollAttempts, "Attempts to reach a page before giving up")
	f.DurationVar(&o.renderDelay, "highlight.renderDelay", d.RenderDelay, "Wait between scrolling and searching; negative disables")
	f.DurationVar(&o.hlTimeout, "highlight.timeout", d.Timeout, "Upper bound for one highlight run")
	return cmd
}

func newWatchCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprint page references whenever the local inputs change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, o, func(a *app.App) error {
				return a.Watch(cmd.Context(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&o.format, "format", "markdown", "Output format: markdown or json")
	cmd.Flags().DurationVar(&o.debounce, "watch.debounce", app.DefaultConfig().WatchDebounce, "Quiet period before reloading after a change")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.VersionString())
		},
	}
}
