// Command complaintctl is a terminal client for the campus complaint desk.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/R3E-Network/complaint_client/internal/app"
	"github.com/R3E-Network/complaint_client/internal/cli"
	"github.com/R3E-Network/complaint_client/internal/config"
	apierrors "github.com/R3E-Network/complaint_client/internal/errors"
	"github.com/R3E-Network/complaint_client/pkg/logger"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{
		in:      bufio.NewReader(os.Stdin),
		printer: cli.NewPrinter(cli.FormatText),
	}
	os.Exit(r.run(ctx, os.Args[1:]))
}

// usageError marks bad invocations, which exit with status 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// runner carries the per-invocation state shared by every command.
type runner struct {
	in      *bufio.Reader
	printer *cli.Printer
	app     *app.Application

	// newApp overrides application construction in tests.
	newApp func(cfg *config.Config, log *logger.Logger) (*app.Application, error)
}

func (r *runner) run(ctx context.Context, args []string) int {
	global := flag.NewFlagSet("complaintctl", flag.ContinueOnError)
	global.SetOutput(r.printer.Err)
	configFile := global.String("config", "", "YAML profile with client settings")
	envFile := global.String("env", "", ".env file to load (default ./.env when present)")
	output := global.String("o", "text", "Output format: text, json or yaml")
	global.Usage = func() { printUsage(r.printer.Err) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	format, err := cli.ParseFormat(*output)
	if err != nil {
		r.printer.Error(err.Error())
		return exitUsage
	}
	r.printer.Format = format

	rest := global.Args()
	if len(rest) == 0 {
		printUsage(r.printer.Err)
		return exitUsage
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "help", "-h", "--help":
		printUsage(r.printer.Out)
		return exitOK
	case "completion":
		if len(cmdArgs) != 1 {
			r.printer.Error("usage: complaintctl completion <bash|zsh|fish>")
			return exitUsage
		}
		if err := cli.GenerateCompletion(r.printer.Out, cmdArgs[0]); err != nil {
			r.printer.Error(err.Error())
			return exitUsage
		}
		return exitOK
	}

	handler, ok := commands[cmd]
	if !ok {
		r.printer.Error(fmt.Sprintf("unknown command %q", cmd))
		printUsage(r.printer.Err)
		return exitUsage
	}

	cfg, err := config.Load(config.Options{EnvFile: *envFile, ConfigFile: *configFile})
	if err != nil {
		r.printer.Error(err.Error())
		return exitError
	}
	logCfg := cfg.Logger("complaintctl")
	logCfg.Output = r.printer.Err
	log := logger.New(logCfg)

	build := r.newApp
	if build == nil {
		build = func(cfg *config.Config, log *logger.Logger) (*app.Application, error) {
			return app.New(cfg, app.Dependencies{}, log)
		}
	}
	r.app, err = build(cfg, log)
	if err != nil {
		r.printer.Error(err.Error())
		return exitError
	}
	defer r.app.Close()

	ctx = logger.WithTraceID(ctx, logger.NewTraceID())
	if err := handler(r, ctx, cmdArgs); err != nil {
		return r.fail(err)
	}
	return exitOK
}

// fail prints err the way a user should see it and picks the exit status.
func (r *runner) fail(err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		r.printer.Error(usage.msg)
		return exitUsage
	}
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}

	var displayer interface{ DisplayMessage() string }
	if errors.As(err, &displayer) {
		kind, msg := apierrors.Classify(err)
		r.printer.Error(msg)
		if kind == apierrors.KindUnauthorized {
			fmt.Fprintln(r.printer.Err, "Run `complaintctl login` to sign in again.")
		}
	} else {
		r.printer.Error(err.Error())
	}
	return exitError
}

// prompt reads one line from stdin when value is empty.
func (r *runner) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(r.printer.Err, "%s: ", label)
	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: complaintctl [-config file] [-env file] [-o text|json|yaml] <command> [args]

Session:
  login          Sign in with email or student ID
  register       Create an account
  logout         Sign out and erase the stored token
  whoami         Show the signed-in user

Complaints:
  dashboard                  Statistics, level progress and complaints
  complaints list            List your complaints
  complaints show <id>       Show one complaint
  complaints create          Submit a complaint (-image attaches a photo)
  complaints delete <id>     Delete a complaint
  complaints stats           Status counts and points
  complaints categories      List categories

Notifications:
  notifications list         Show the first page
  notifications read <id>    Mark one as read
  notifications read-all     Mark all as read
  notifications watch        Print new notifications as they arrive

Account:
  profile show|update|password
  prefs show|set
  leaderboard

Other:
  completion <bash|zsh|fish>
`)
}
