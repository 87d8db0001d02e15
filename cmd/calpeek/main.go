package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/jessevdk/go-flags"

	"calpeek/internal/config"
	"calpeek/internal/format"
	"calpeek/internal/ics"
	appLog "calpeek/internal/log"
	"calpeek/internal/model"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const (
	exitOK    = 0
	exitInput = 1
	exitUsage = 2
)

type options struct {
	Days       int    `short:"d" long:"days" description:"Number of days to look ahead (default: 7)"`
	Format     string `short:"f" long:"format" choice:"simple" choice:"detailed" choice:"json" description:"Output format (default: simple)"`
	Timezone   string `short:"z" long:"timezone" description:"Reference IANA timezone (default: system local)"`
	Config     string `short:"c" long:"config" description:"Path to YAML config file"`
	InitConfig bool   `long:"init-config" description:"Write a default config file to the config path and exit"`
	Verbose    bool   `short:"v" long:"verbose" description:"Enable debug logging on stderr"`
	Version    bool   `long:"version" description:"Print version and exit"`

	Args struct {
		File string `positional-arg-name:"FILE" description:"iCalendar file to read ('-' or omitted: stdin)"`
	} `positional-args:"yes"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, time.Now()))
}

// run executes one invocation and returns the process exit code. Nothing is
// written to stdout unless the whole pipeline succeeds.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, now time.Time) int {
	appLog.SetOutput(stderr)

	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "calpeek"
	parser.ShortDescription = "Show upcoming events from iCal data piped via stdin"

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return exitOK
		}
		fmt.Fprintf(stderr, "calpeek: %v\n", err)
		return exitUsage
	}

	if opts.Version {
		fmt.Fprintln(stdout, "calpeek", Version)
		return exitOK
	}

	daysSet := parser.FindOptionByLongName("days").IsSet()
	if daysSet && opts.Days <= 0 {
		fmt.Fprintf(stderr, "calpeek: --days must be a positive integer, got %d\n", opts.Days)
		return exitUsage
	}

	cfgPath := opts.Config
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "calpeek: %v\n", err)
		return exitUsage
	}

	if opts.InitConfig {
		if err := config.Save(cfgPath, cfg); err != nil {
			fmt.Fprintf(stderr, "calpeek: write config: %v\n", err)
			return exitInput
		}
		fmt.Fprintf(stdout, "Wrote config to %s\n", cfgPath)
		return exitOK
	}

	// Flags take precedence over the config file.
	if daysSet {
		cfg.Days = opts.Days
	}
	if opts.Format != "" {
		cfg.Format = opts.Format
	}
	if opts.Timezone != "" {
		cfg.Timezone = opts.Timezone
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	appLog.Debug("effective config",
		"config_path", cfgPath,
		"days", cfg.Days,
		"format", cfg.Format,
		"timezone", cfg.Timezone,
		"source", opts.Args.File,
	)

	loc := ics.ResolveLocation(cfg.Timezone)
	src := ics.Source{Path: opts.Args.File}

	body, err := src.Read(stdin)
	if err != nil {
		if errors.Is(err, ics.ErrEmptyInput) {
			fmt.Fprintf(stderr, "No iCal data provided via %s\n", src.Name())
		} else {
			fmt.Fprintf(stderr, "calpeek: %v\n", err)
		}
		return exitInput
	}

	occs, err := upcoming(body, loc, model.NewWindow(now.In(loc), cfg.Days))
	if err != nil {
		fmt.Fprintf(stderr, "Error parsing iCal data: %v\n", err)
		return exitInput
	}

	err = format.Render(stdout, occs, format.Options{
		Format:   cfg.Format,
		Days:     cfg.Days,
		Location: loc,
	})
	if err != nil {
		appLog.Error("render failed", err)
		return exitInput
	}
	return exitOK
}

func upcoming(body []byte, loc *time.Location, w model.Window) ([]model.Occurrence, error) {
	events, err := ics.Parse(body, ics.NewNormalizer(loc))
	if err != nil {
		return nil, err
	}
	return ics.Upcoming(events, w)
}
