// pyrewrite parses and rewrites Python source files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/phobologic/pyrewrite/internal/config"
	"github.com/phobologic/pyrewrite/internal/graph"
	"github.com/phobologic/pyrewrite/internal/ranking"
	"github.com/phobologic/pyrewrite/internal/toon"
	"github.com/phobologic/pyrewrite/pkg/parser"
	"github.com/phobologic/pyrewrite/pkg/refactor"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := runContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return runContext(context.Background(), args, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.shutdown != nil {
		err = errors.Join(err, a.shutdown(context.Background()))
	}
	return err
}

// app carries the state shared by all subcommands.
type app struct {
	stdout, stderr io.Writer

	configPath string
	logLevel   string
	trace      bool

	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pyrewrite",
		Short: "Parse, inspect and rewrite Python source",
		Long: `pyrewrite parses Python files with tree-sitter and applies text-preserving
rewrites: renames, import replacement and modernization, syntax modernization,
test-data simplification and registered recipes.

Mutating commands print the rewritten code, a unified diff (--diff) or save the
file in place (--write). The change log goes to stderr.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./"+config.FileName+" if present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().BoolVar(&a.trace, "trace", false, "print OpenTelemetry spans to stderr")

	root.AddCommand(
		a.inspectCommand(),
		a.renameCommand("rename-function", "Rename a top-level function", (*refactor.Engine).RenameFunctionOptional, (*refactor.Engine).RenameFunctionWithFormat),
		a.renameCommand("rename-class", "Rename a top-level class", (*refactor.Engine).RenameClassOptional, (*refactor.Engine).RenameClassWithFormat),
		a.replaceImportCommand(),
		a.modernizeCommand(),
		a.simplifyCommand(),
		a.formatCommand(),
		a.applyCommand(),
		a.initCommand(),
		a.versionCommand(),
	)
	return root
}

// setup loads the config and installs the logger and tracer.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := cfg.Logging.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := config.ParseLevel(levelName)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if a.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(a.stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		otel.SetTracerProvider(tp)
		a.shutdown = tp.Shutdown
	}
	return nil
}

func (a *app) inspectCommand() *cobra.Command {
	var (
		recursive  bool
		maxFiles   int
		fileFilter string
		symbol     string
	)
	cmd := &cobra.Command{
		Use:   "inspect PATH",
		Short: "Print a TOON report of the definitions, imports and calls in a file or directory",
		Long: `Print a TOON report of the definitions, imports and calls in a file or directory.

For a directory, files are ordered by PageRank over the import graph between
them, and the graph is reported as a dependencies table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			p := parser.New(a.cfg.ParserOptions(a.logger)...)

			report := &toon.Report{Root: filepath.Base(filepath.Clean(path))}
			if info.IsDir() {
				results, err := p.ParseDirectoryContext(cmd.Context(), path, a.cfg.DirectoryOptions(recursive))
				if err != nil {
					return err
				}
				if failed := parser.Failed(results); len(failed) > 0 {
					a.logger.Info("inspected with parse failures", slog.Int("failed", len(failed)), slog.Int("files", len(results)))
				}
				for _, r := range results {
					if rel, err := filepath.Rel(path, r.Path); err == nil {
						r.Path = filepath.ToSlash(rel)
					}
					report.Files = append(report.Files, r)
				}
				report.Dependencies = graph.BuildImportGraph(report.Files)
				graph.Rank(report.Files, report.Dependencies)
			} else {
				mod, err := p.ParseFile(path)
				if err != nil && !errors.Is(err, parser.ErrParse) {
					return err
				}
				report.Files = []parser.FileResult{{Path: filepath.Base(path), Module: mod, Err: err}}
			}

			if fileFilter != "" {
				report = ranking.FilterByFile(report, fileFilter)
			}
			if symbol != "" {
				report = ranking.FilterBySymbol(report, symbol)
			}
			report = ranking.SelectFiles(report, maxFiles)
			_, _ = fmt.Fprintln(a.stdout, toon.Encode(report))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
	cmd.Flags().IntVarP(&maxFiles, "max-files", "n", 0, "report only the N top-ranked files (0 for all)")
	cmd.Flags().StringVarP(&fileFilter, "file", "f", "", "report only files whose path contains this substring")
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "report only files defining or importing a matching symbol")
	return cmd
}

// output selects what a mutating command emits.
type output struct {
	diff  bool
	write bool
}

func (o *output) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.diff, "diff", false, "print a unified diff instead of the code")
	cmd.Flags().BoolVarP(&o.write, "write", "w", false, "save the result in place")
	cmd.MarkFlagsMutuallyExclusive("diff", "write")
}

// engine opens path with the configured options.
func (a *app) engine(path string) (*refactor.Engine, error) {
	return refactor.NewFromFile(path, a.cfg.EngineOptions(a.logger)...)
}

// finish reports the change log on stderr and emits the result.
func (a *app) finish(e *refactor.Engine, path string, out output) error {
	_, _ = fmt.Fprintln(a.stderr, toon.EncodeChanges(e.ChangeSummary()))
	switch {
	case out.write:
		if e.Diff() == "" {
			return nil
		}
		return e.SaveToFile(path)
	case out.diff:
		_, _ = fmt.Fprint(a.stdout, e.Diff())
	default:
		_, _ = fmt.Fprint(a.stdout, e.GetCode())
	}
	return nil
}

type (
	renameOptional   func(e *refactor.Engine, from, to string, errorIfMissing bool) error
	renameWithFormat func(e *refactor.Engine, from, to string, applyFormatting bool) error
)

func (a *app) renameCommand(use, short string, optional renameOptional, withFormat renameWithFormat) *cobra.Command {
	var (
		out      output
		skip     bool
		doFormat bool
	)
	cmd := &cobra.Command{
		Use:   use + " OLD NEW FILE",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(args[2])
			if err != nil {
				return err
			}
			if skip {
				err = optional(e, args[0], args[1], false)
			} else {
				err = withFormat(e, args[0], args[1], doFormat)
			}
			if err != nil {
				return err
			}
			return a.finish(e, args[2], out)
		},
	}
	out.register(cmd)
	cmd.Flags().BoolVar(&skip, "optional", false, "succeed without changes when the definition is missing")
	cmd.Flags().BoolVar(&doFormat, "format", false, "format the result as part of the rename")
	cmd.MarkFlagsMutuallyExclusive("optional", "format")
	return cmd
}

func (a *app) replaceImportCommand() *cobra.Command {
	var out output
	cmd := &cobra.Command{
		Use:   "replace-import OLD NEW FILE",
		Short: "Replace every import of module OLD with NEW",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(args[2])
			if err != nil {
				return err
			}
			if err := e.ReplaceImport(args[0], args[1]); err != nil {
				return err
			}
			return a.finish(e, args[2], out)
		},
	}
	out.register(cmd)
	return cmd
}

func (a *app) modernizeCommand() *cobra.Command {
	var (
		out      output
		doFormat bool
	)
	cmd := &cobra.Command{
		Use:   "modernize FILE",
		Short: "Replace legacy imports and rewrite legacy syntax",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(args[0])
			if err != nil {
				return err
			}
			if err := e.ModernizeImports(); err != nil {
				return err
			}
			if err := e.ModernizeSyntaxWithFormat(doFormat); err != nil {
				return err
			}
			return a.finish(e, args[0], out)
		},
	}
	out.register(cmd)
	cmd.Flags().BoolVar(&doFormat, "format", false, "format the result")
	return cmd
}

func (a *app) simplifyCommand() *cobra.Command {
	var out output
	cmd := &cobra.Command{
		Use:   "simplify FILE",
		Short: "Turn a module into test code: drop unused imports and mock complex or real data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(args[0])
			if err != nil {
				return err
			}
			if err := e.ConvertToTestCode(); err != nil {
				return err
			}
			return a.finish(e, args[0], out)
		},
	}
	out.register(cmd)
	return cmd
}

func (a *app) formatCommand() *cobra.Command {
	var out output
	cmd := &cobra.Command{
		Use:   "format FILE",
		Short: "Run the configured formatter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(args[0])
			if err != nil {
				return err
			}
			if err := e.FormatCode(); err != nil {
				return err
			}
			return a.finish(e, args[0], out)
		},
	}
	out.register(cmd)
	return cmd
}

func (a *app) applyCommand() *cobra.Command {
	var (
		out  output
		list bool
	)
	cmd := &cobra.Command{
		Use:   "apply NAME FILE",
		Short: "Apply a registered transformation",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := refactor.NewRegistry()
			if err := refactor.RegisterBuiltins(reg); err != nil {
				return err
			}
			if list {
				for _, name := range reg.Names() {
					_, _ = fmt.Fprintln(a.stdout, name)
				}
				return nil
			}

			e, err := a.engine(args[1])
			if err != nil {
				return err
			}
			changed, err := reg.Apply(args[0], e)
			if err != nil {
				return err
			}
			if !changed {
				a.logger.Info("transformation did not match", slog.String("name", args[0]), slog.String("file", args[1]))
			}
			return a.finish(e, args[1], out)
		},
	}
	out.register(cmd)
	cmd.Flags().BoolVar(&list, "list", false, "list the registered transformations")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "pyrewrite %s\n", version)
			return err
		},
	}
}
