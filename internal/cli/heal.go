package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/headfix/internal/heal"
	"github.com/dgallion1/headfix/internal/heading"
	"github.com/dgallion1/headfix/internal/outline"
	"github.com/dgallion1/headfix/internal/parser"
)

type healOptions struct {
	selector      string
	classPrefix   string
	forceSingleH1 bool
	logResults    bool
	outDir        string
	jobs          int
	pdfFallback   bool
}

type healed struct {
	path       string
	html       []byte
	report     heal.Report
	violations []outline.Violation
}

func newHealCmd(root *rootOptions) *cobra.Command {
	opts := &healOptions{}
	cmd := &cobra.Command{
		Use:   "heal <file>...",
		Short: "Heal the heading hierarchy of one or more documents",
		Long: `Parses each file, demotes headings that skip levels below the first h1
and writes the result as HTML. Moved headings keep a style-hook class
({class-prefix}{original rank}) and a data-prev-heading attribute.

Without --out-dir the healed HTML is written to stdout in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeal(cmd, root, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.selector, "selector", "s", "", "CSS selector of the container to heal (default <body>)")
	f.StringVar(&opts.classPrefix, "class-prefix", heading.DefaultClassPrefix, "prefix of the style-hook class")
	f.BoolVar(&opts.forceSingleH1, "force-single-h1", false, "demote every h1 after the first to h2")
	f.BoolVar(&opts.logResults, "log", false, "log each heading decision")
	f.StringVarP(&opts.outDir, "out-dir", "o", "", "directory for healed files")
	f.IntVarP(&opts.jobs, "jobs", "j", 4, "files processed concurrently")
	f.BoolVar(&opts.pdfFallback, "pdftotext", true, "fall back to pdftotext for unreadable PDFs")
	return cmd
}

func runHeal(cmd *cobra.Command, root *rootOptions, opts *healOptions, paths []string) error {
	log := root.logger(cmd.ErrOrStderr())
	ctl, closeStore := root.controller(log, false)
	defer closeStore()
	healer := heal.New(log, ctl, nil, nil)

	if opts.outDir != "" {
		if err := checkOutputCollisions(opts.outDir, paths); err != nil {
			return err
		}
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	results := make([]healed, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(opts.jobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			res, err := healFile(ctx, healer, opts, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			if opts.outDir == "" {
				return nil
			}
			return os.WriteFile(outputPath(opts.outDir, path), res.html, 0o644)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if opts.outDir == "" {
			if _, err := cmd.OutOrStdout().Write(res.html); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s, %d replaced", res.path, res.report.Outcome, res.report.Replaced)
		if n := len(res.violations); n > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), ", %d skipped levels remain", n)
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	return nil
}

func healFile(ctx context.Context, healer *heal.Healer, opts *healOptions, path string) (healed, error) {
	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: opts.pdfFallback})
	if err != nil {
		return healed{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return healed{}, err
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return healed{}, fmt.Errorf("parse: %w", err)
	}

	rep := healer.Fix(ctx, doc.Root, opts.selector, heal.FixOptions{
		LogResults:    opts.logResults,
		ClassPrefix:   opts.classPrefix,
		ForceSingleH1: opts.forceSingleH1,
	})
	if rep.Err != nil {
		return healed{}, fmt.Errorf("heal: %w", rep.Err)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return healed{}, fmt.Errorf("render: %w", err)
	}
	return healed{
		path:       path,
		html:       buf.Bytes(),
		report:     rep,
		violations: outline.Check(rep.Root),
	}, nil
}

// checkOutputCollisions rejects inputs that would be written to the same
// output file, such as a/notes.md and b/notes.txt.
func checkOutputCollisions(dir string, paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		out := outputPath(dir, path)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, path, out)
		}
		seen[out] = path
	}
	return nil
}

// outputPath maps notes.md to <dir>/notes.html.
func outputPath(dir, path string) string {
	base := filepath.Base(path)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".html")
}
