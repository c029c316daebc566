package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/woozymasta/geotoolbox/internal/config"
	"github.com/woozymasta/geotoolbox/internal/logger"
	"github.com/woozymasta/geotoolbox/internal/toolbox"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Version    bool   `short:"v" long:"version" description:"Print version and exit"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true

	addCommand(parser, "boundary", "Boundary hulls of a location as GeoJSON", &boundaryCommand{})
	addCommand(parser, "uk-geography", "LSOA, MSOA or LA intersecting locations as CSV", &ukGeographyCommand{})
	addCommand(parser, "geocode", "Geocode a CSV of locations", &geocodeCommand{})
	addCommand(parser, "reverse", "Reverse geocode a CSV of coordinates", &reverseCommand{})
	addCommand(parser, "preview", "Render the boundary of a location as WebP", &previewCommand{})

	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		opts.Logger.Setup()
		if opts.Version {
			_, _ = os.Stdout.WriteString(config.Version + "\n")
			return nil
		}
		if cmd == nil {
			parser.WriteHelp(os.Stderr)
			return nil
		}
		return cmd.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func addCommand(parser *flags.Parser, name, short string, data flags.Commander) {
	if _, err := parser.AddCommand(name, short, short, data); err != nil {
		log.Fatal().Err(err).Str("command", name).Msg("Failed to register command")
	}
}

// setup loads the configuration and opens the upstream clients. The context
// is cancelled on SIGINT or SIGTERM.
func setup() (context.Context, context.CancelFunc, *config.Config, *toolbox.Toolbox, error) {
	cfg, err := config.LoadOptional(opts.ConfigFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	tb, err := toolbox.Open(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cancel := func() {
		stop()
		tb.Close()
	}

	return ctx, cancel, cfg, tb, nil
}

// createOutput opens path for writing, or stdout when path is empty or "-".
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
