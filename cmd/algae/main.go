package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/algae/internal/log"
	"github.com/gwillem/algae/pkg/robot"
)

type Options struct {
	Config   string `short:"c" long:"config" default:"algae.json" description:"Config file (JSON, or YAML by extension)"`
	LogLevel string `long:"log-level" description:"Override the configured log level (debug, info, warn, error)"`

	Run   RunCommand   `command:"run" description:"Run the intake with a live terminal view"`
	Ports PortsCommand `command:"ports" description:"Find the pivot servo and print a config for it"`
	Plot  PlotCommand  `command:"plot" description:"Simulate a mode sequence and chart it to a PNG"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Algae - algae intake control and simulation CLI"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads the file named by --config. A missing default file falls
// back to the built-in simulated robot.
func loadConfig() (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	if errors.Is(err, fs.ErrNotExist) && opts.Config == robot.DefaultConfigFile {
		cfg = robot.DefaultConfig()
		if err = cfg.ApplyEnv(); err == nil {
			err = cfg.Validate()
		}
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	return cfg, nil
}

// initLogging sends log lines to stderr at the configured level. The run
// command logs to a file instead.
func initLogging(cfg *robot.Config) {
	log.Init(cfg.LogLevel)
}
