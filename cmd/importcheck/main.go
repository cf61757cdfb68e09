// Command importcheck previews CSV files from the command line using the
// same pipeline as the server: encoding detection, tokenizing and schema
// validation. It exits non-zero when a file fails to parse or validate.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/config"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/report"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	_ "github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules/builtin" // Register built-in schemas
)

// errChecksFailed is returned when at least one file is invalid.
var errChecksFailed = errors.New("one or more files failed")

type options struct {
	schema      string
	maxRows     int
	rulesDir    string
	jsonOut     bool
	xlsxDir     string
	csvDir      string
	concurrency int
	listSchemas bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, color.RedString("Fatal: %s", err))
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "importcheck [flags] FILE...",
		Short:         "Preview and validate CSV import files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.rulesDir != "" {
				if _, err := rules.LoadDir(opts.rulesDir); err != nil {
					return err
				}
			}
			if opts.listSchemas {
				printSchemas(cmd.OutOrStdout(), rules.All())
				return nil
			}
			if len(args) == 0 {
				return errors.New("no files given")
			}
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.schema, "schema", "s", "", "schema key to validate against")
	f.IntVarP(&opts.maxRows, "max-rows", "n", 0, "rows to preview per file (default from PREVIEW_MAX_ROWS)")
	f.StringVar(&opts.rulesDir, "rules", os.Getenv("RULES_DIR"), "directory of YAML rule catalogs")
	f.BoolVar(&opts.jsonOut, "json", false, "print results as JSON")
	f.StringVar(&opts.xlsxDir, "xlsx", "", "write an XLSX report per file into this directory")
	f.StringVar(&opts.csvDir, "failed-csv", "", "write a failed-rows CSV per file into this directory")
	f.IntVarP(&opts.concurrency, "concurrency", "j", 4, "files processed in parallel")
	f.BoolVar(&opts.listSchemas, "list-schemas", false, "list registered schemas and exit")

	return cmd
}

// fileResult is the outcome for one input file.
type fileResult struct {
	Path     string                `json:"path"`
	Preview  *core.PreviewResponse `json:"preview,omitempty"`
	Error    string                `json:"error,omitempty"`
	ErrorErr error                 `json:"-"`
}

func (r fileResult) ok() bool {
	if r.ErrorErr != nil {
		return false
	}
	return r.Preview.Validation == nil || r.Preview.Validation.Valid
}

func run(cmd *cobra.Command, opts options, paths []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc := core.NewService(cfg)

	results := make([]fileResult, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(opts.concurrency, 1))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res := checkFile(ctx, svc, opts, path)
			results[i] = res
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		if err := printJSON(out, results); err != nil {
			return err
		}
	} else {
		printResults(out, results)
	}

	for _, r := range results {
		if !r.ok() {
			return errChecksFailed
		}
	}
	return nil
}

func checkFile(ctx context.Context, svc *core.Service, opts options, path string) fileResult {
	res := fileResult{Path: path}
	fail := func(err error) fileResult {
		res.ErrorErr = err
		res.Error = core.FormatUserError(err)
		if !core.IsUserFacing(err) {
			res.Error = err.Error()
		}
		return res
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(err)
	}
	if info.Size() > svc.Config().Preview.MaxFileSize {
		return fail(fmt.Errorf("%w: %d bytes", core.ErrFileTooLarge, info.Size()))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	resp, err := svc.Preview(ctx, core.PreviewRequest{
		FileName: filepath.Base(path),
		Schema:   opts.schema,
		Data:     data,
		MaxRows:  opts.maxRows,
		Source:   core.SourceCLI,
	})
	if err != nil {
		return fail(err)
	}
	res.Preview = resp

	if err := writeReports(opts, path, resp); err != nil {
		return fail(err)
	}
	return res
}

func writeReports(opts options, path string, resp *core.PreviewResponse) error {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if opts.xlsxDir != "" {
		if err := writeFile(filepath.Join(opts.xlsxDir, base+"_report.xlsx"), func(f *os.File) error {
			return report.WriteXLSX(f, resp)
		}); err != nil {
			return fmt.Errorf("xlsx report: %w", err)
		}
	}
	if opts.csvDir != "" {
		if err := writeFile(filepath.Join(opts.csvDir, base+"_failed.csv"), func(f *os.File) error {
			return report.FailedRowsCSV(f, resp.PreviewResult)
		}); err != nil {
			return fmt.Errorf("failed-rows csv: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
