package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	statusbar "github.com/moamenhredeen/swaybar-status-manager"
	"github.com/moamenhredeen/swaybar-status-manager/config"
	"github.com/moamenhredeen/swaybar-status-manager/protocol"
	"github.com/moamenhredeen/swaybar-status-manager/sources"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func init() {
	// Diagnostics go to stderr in a human readable form; stdout belongs
	// to the feed.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	// Do not handle SIGPIPE, we'll do it ourselves (see error handling at the bottom of main).
	signal.Ignore(syscall.SIGPIPE)

	// Display a stack trace on panic
	defer func() {
		if e := recover(); e != nil {
			fmt.Fprintf(os.Stderr, "%s: %s", e, debug.Stack())
		}
	}()

	var configPath string
	var interval time.Duration
	var clickEvents bool
	var outputMode string
	var logLevel string
	var showVersion bool

	flag.Usage = printUsage
	flag.StringVar(&configPath, "config", "", "configuration file (default: search the standard locations)")
	flag.DurationVar(&interval, "interval", 0, "time between snapshots, for example 1s or 250ms")
	flag.BoolVar(&clickEvents, "click-events", false, "ask the host for click events on standard input")
	flag.StringVar(&outputMode, "output", "", "output mode: auto, json or term")
	flag.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn or error")
	flag.BoolVar(&showVersion, "version", false, "print the version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("swaybar-status %s\n", version)
		return
	}
	if flag.NArg() > 0 {
		fatalError("unexpected argument: %q", flag.Arg(0))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fatalError("error: %s", err)
	}

	// Command line options win over the configuration file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interval":
			cfg.Interval = config.Duration(interval)
		case "click-events":
			cfg.ClickEvents = clickEvents
		case "output":
			cfg.Output = outputMode
		case "log-level":
			cfg.Log.Level = logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fatalError("error: %s", err)
	}
	if err := cfg.Log.ConfigureZerolog(); err != nil {
		fatalError("error: %s", err)
	}

	srcs, err := buildSources(cfg)
	if err != nil {
		fatalError("error: %s", err)
	}

	output := cfg.Output
	if output == config.OutputAuto {
		if isatty.IsTerminal(os.Stdout.Fd()) {
			output = config.OutputTerm
		} else {
			output = config.OutputJSON
		}
	}

	var r runner
	if output == config.OutputTerm {
		var stdout io.Writer = os.Stdout
		var colors *statusbar.Palette
		if isatty.IsTerminal(os.Stdout.Fd()) {
			stdout = colorable.NewColorableStdout()
			colors = &defaultPalette
		}
		preview := statusbar.NewPreview(stdout, srcs...)
		preview.Interval = time.Duration(cfg.Interval)
		preview.Colors = colors
		preview.Log = log.Logger
		r = preview
	} else {
		// Only read stdin when the header asks the host to write to it.
		var in io.Reader
		if cfg.ClickEvents {
			in = os.Stdin
		}
		engine := statusbar.NewEngine(os.Stdout, in, srcs...)
		engine.Header = buildHeader(cfg)
		engine.Interval = time.Duration(cfg.Interval)
		engine.Log = log.Logger
		r = engine
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Interrupt or termination stops the feed cleanly.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Debug().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// SIGUSR1 pushes the next snapshot out immediately, handy from a
	// keybinding right after changing whatever a source reports.
	kick := make(chan os.Signal, 1)
	signal.Notify(kick, syscall.SIGUSR1)
	go func() {
		for range kick {
			r.Refresh()
		}
	}()

	err = r.Run(ctx)
	switch {
	case err == nil || errors.Is(err, context.Canceled):
	case errors.Is(err, syscall.EPIPE):
		// stdout is a pipe and the host closed it (e.g. swaybar went away).
		// In this case we don't want to complain.
	default:
		fatalError("error: %s", err)
	}
}

// Both the engine and the preview run the same way; main only decides
// which of them feeds stdout.
type runner interface {
	Run(ctx context.Context) error
	Refresh()
}

func buildHeader(cfg *config.Config) *protocol.Header {
	hdr := protocol.NewHeader(protocol.Version)
	if cfg.ClickEvents {
		hdr.SetClickEvents(true)
	}
	if cfg.ConstSignal != 0 {
		hdr.SetConstSignal(cfg.ConstSignal)
	}
	if cfg.StopSignal != 0 {
		hdr.SetStopSignal(cfg.StopSignal)
	}
	return hdr
}

func buildSources(cfg *config.Config) ([]statusbar.Source, error) {
	srcs := make([]statusbar.Source, 0, len(cfg.Sources))
	for i, sc := range cfg.Sources {
		src, err := buildSource(sc)
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		srcs = append(srcs, src)
	}
	return srcs, nil
}

func buildSource(sc config.SourceConfig) (statusbar.Source, error) {
	switch sc.Type {
	case config.SourceClock:
		return sources.NewClock(sc.Layout), nil
	case config.SourceCommand:
		return sources.NewCommand(sc.Name, sc.Command, time.Duration(sc.Timeout))
	case config.SourceCPU:
		return sources.NewCPU(), nil
	case config.SourceMemory:
		return sources.NewMemory(), nil
	case config.SourceLoad:
		return sources.NewLoad(), nil
	case config.SourceBattery:
		return sources.NewBattery(sc.UrgentBelow), nil
	}
	return nil, fmt.Errorf("unknown source type %q", sc.Type)
}

func fatalError(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, msg, args...)
	os.Exit(1)
}

// Some color ANSI codes
var (
	Reset      = []byte("\033[0m")
	DimWhite   = []byte("\033[37;2m")
	WhiteOnRed = []byte("\033[97;41m")
)

// The palette used when previewing on a terminal.
var defaultPalette = statusbar.Palette{
	UrgentCode:    WhiteOnRed,
	SeparatorCode: DimWhite,
	ResetCode:     Reset,
}

func printUsage() {
	fmt.Fprint(os.Stderr, `swaybar-status - status line generator for swaybar

USAGE:
  swaybar-status [options]

DESCRIPTION:
  swaybar-status speaks the swaybar-protocol(7) on stdout: a header
  object, then an endless array of status line snapshots. When click
  events are enabled, swaybar reports clicks as JSON objects on stdin.

  On a terminal it renders a human readable preview of the status line
  instead, one line per snapshot (see -output).

OPTIONS:
  -config PATH      Configuration file. Without it, the standard
                    locations are searched (see CONFIGURATION).
  -interval D       Time between snapshots, for example 1s or 250ms.
  -click-events     Ask swaybar for click events on standard input.
  -output MODE      auto, json or term (default: auto).
                    auto picks json when piped, term on a terminal.
  -log-level LEVEL  trace, debug, info, warn or error. Diagnostics go
                    to stderr, never into the feed.
  -version          Print the version and exit.

  Command line options win over the configuration file.

CONFIGURATION:
  The configuration is a YAML file, looked up in order in:

    $SWAYBAR_STATUS_CONFIG
    $XDG_CONFIG_HOME/swaybar-status/config.yaml
    ~/.config/swaybar-status/config.yaml
    /etc/swaybar-status/config.yaml

  Example:

    interval: 1s
    click_events: true
    sources:
      - type: clock
        layout: "15:04:05  2006.01.02"
      - type: cpu
      - type: battery
        urgent_below: 20
      - type: command
        name: player
        command: ["playerctl", "metadata", "title"]
        timeout: 500ms

SOURCES:
  clock     the current time (layout: a Go time layout)
  command   the output of a command (command: argv list, timeout)
  cpu       CPU usage percentage
  memory    memory usage percentage
  load      1 minute load average
  battery   battery charge, urgent when low (urgent_below: percentage)

SIGNALS:
  SIGUSR1   emit the next snapshot immediately

EXAMPLES:
  # In your sway config:
  bar {
      status_command swaybar-status
  }

  # Try out a configuration on a terminal
  swaybar-status -config ./config.yaml -interval 500ms

  # Look at the raw protocol stream
  swaybar-status -output json | head -3
`)
}
