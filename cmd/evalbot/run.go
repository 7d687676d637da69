package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/xilef-bot/evalbot/internal/dispatch"
	"github.com/xilef-bot/evalbot/internal/infrastructure/server"
	"github.com/xilef-bot/evalbot/internal/sandbox"
)

var (
	runMessage   bool
	runRemote    string
	runTimeoutMS int
	runModules   []string
)

var runCmd = &cobra.Command{
	Use:   "run <file|glob|->...",
	Short: "Run script files and print their report",
	Long: `Run one or more scripts and print each report as fenced pages.

Arguments are file paths, doublestar globs such as "scripts/**/*.js", or "-"
for standard input. Directives (// #enable, // #vmconf) work as in chat.

Exit codes:
  0  every script succeeded
  1  at least one script produced a failure report
  2  usage error or unreadable input`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runMessage, "message", "m", false, "treat input as a chat message and extract its js code block")
	runCmd.Flags().StringVar(&runRemote, "remote", "", "evalbot base URL to run against instead of a local sandbox")
	runCmd.Flags().IntVar(&runTimeoutMS, "timeout", 0, "default execution budget in milliseconds (overrides SANDBOX_TIMEOUT_MS)")
	runCmd.Flags().StringSliceVar(&runModules, "allow", nil, "allowed standard modules (overrides SANDBOX_ALLOWED_MODULES)")
}

// script is one input to run.
type script struct {
	name   string
	source string
}

// reporter runs a script and prints its report, returning whether it succeeded.
type reporter func(ctx context.Context, w io.Writer, s script) (bool, error)

func runRun(cmd *cobra.Command, args []string) error {
	scripts, err := collectScripts(args, cmd.InOrStdin())
	if err != nil {
		return &exitError{code: ExitUsage, err: err}
	}

	report, err := newReporter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	failed := 0
	for i, s := range scripts {
		if len(scripts) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "==> %s <==\n", s.name)
		}
		ok, err := report(ctx, out, s)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return &exitError{code: ExitFailure, err: fmt.Errorf("%d of %d scripts failed", failed, len(scripts))}
	}
	return nil
}

func newReporter() (reporter, error) {
	if runRemote != "" {
		client := newRemoteClient(runRemote, 60*time.Second)
		return client.report, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if runTimeoutMS > 0 {
		cfg.Sandbox.TimeoutMS = runTimeoutMS
	}
	if runModules != nil {
		cfg.Sandbox.AllowedModules = runModules
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	pool := sandbox.NewPool(1, cfg.Sandbox.AcquireTimeout())
	caps, err := server.NewCapabilities(cfg, pool, version, logger)
	if err != nil {
		return nil, &exitError{code: ExitUsage, err: err}
	}
	d := server.NewDispatcher(cfg, pool, caps, logger, nil)

	return func(ctx context.Context, w io.Writer, s script) (bool, error) {
		var report *dispatch.Report
		if runMessage {
			report = d.DispatchMessage(ctx, dispatch.Message{Author: "cli", Content: s.source})
		} else {
			report = d.Dispatch(ctx, dispatch.Request{Source: s.source, Message: dispatch.Message{Author: "cli", Content: s.source}})
		}
		printLocal(w, report)
		return report.Succeeded(), nil
	}, nil
}

func printLocal(w io.Writer, report *dispatch.Report) {
	if report.Failure != nil {
		printPage(w, dispatch.FailureTitle, dispatch.FencedFailure(report.Failure))
	}
	for _, p := range report.Pages {
		printPage(w, p.Title, dispatch.Fenced(p))
	}
	printSent(w, report.Sent)
}

func printPage(w io.Writer, title, body string) {
	if title != "" {
		fmt.Fprintf(w, "# %s\n", title)
	}
	fmt.Fprintln(w, body)
}

func printSent(w io.Writer, sent []string) {
	for _, text := range sent {
		fmt.Fprintf(w, "> %s\n", strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n> "))
	}
}

// collectScripts expands args into scripts. Globs are matched with
// doublestar and only text files are accepted.
func collectScripts(args []string, stdin io.Reader) ([]script, error) {
	var scripts []script
	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			scripts = append(scripts, script{name: "<stdin>", source: string(data)})
			continue
		}

		paths, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("no file matches %q", arg)
		}
		sort.Strings(paths)
		for _, path := range paths {
			s, err := readScript(path)
			if err != nil {
				return nil, err
			}
			scripts = append(scripts, s)
		}
	}
	return scripts, nil
}

func readScript(path string) (script, error) {
	info, err := os.Stat(path)
	if err != nil {
		return script{}, err
	}
	if info.IsDir() {
		return script{}, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return script{}, fmt.Errorf("detecting type of %s: %w", path, err)
	}
	if !isText(mtype) {
		return script{}, fmt.Errorf("%s is not a text file (%s)", path, mtype.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return script{}, err
	}
	return script{name: path, source: string(data)}, nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
