// Command oddvibe scores the rows of a regression dataset by how much they
// look like outliers.
//
// Usage:
//
//	oddvibe weights --features X.npy --target y.npy --out w.npy
//	oddvibe demo --iterations 5000
//	oddvibe batch --seeds 8 --features X.csv --target y.csv
//	oddvibe plot --features X.npy --target y.npy --out weights.png
//	oddvibe refit --features X.csv --target y.csv
//	oddvibe serve --addr :8080
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/ezoic/oddvibe/pkg/config"
	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/pkg/log"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	name    = "oddvibe"
	version = "v0.0.1-default"
	commit  = ""
)

// Flag names shared between commands.
const (
	configFlag     = "config"
	logLevelFlag   = "log-level"
	debugFlag      = "debug"
	formatFlag     = "format"
	seedFlag       = "seed"
	iterationsFlag = "iterations"
	policyFlag     = "policy"
	featuresFlag   = "features"
	targetFlag     = "target"
	outFlag        = "out"
	topFlag        = "top"
)

// globalFlags are declared on the root command and visible to every
// subcommand. Flags keep parse state, so each app gets fresh ones.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      configFlag,
			Aliases:   []string{"c"},
			Usage:     "Path to a YAML run configuration (optional)",
			Sources:   cli.EnvVars("ODDVIBE_CONFIG"),
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:    logLevelFlag,
			Usage:   "Log level: trace, debug, info, warn, error or disabled (optional, overrides config)",
			Sources: cli.EnvVars("ODDVIBE_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:  debugFlag,
			Usage: "Prints verbose logs, same as --log-level debug (optional, default: false)",
		},
		&cli.StringFlag{
			Name:  formatFlag,
			Usage: "Output format: json or yaml (optional, default: json)",
			Value: formatJSON,
			Validator: func(s string) error {
				if s != formatJSON && s != formatYAML {
					return errors.Newf("invalid output format %q, expected json or yaml", s)
				}
				return nil
			},
		},
	}
}

// runFlags are the booster overrides shared by every scoring command.
func runFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.Int64Flag{
			Name:  seedFlag,
			Usage: "Random seed (optional, overrides config)",
		},
		&cli.IntFlag{
			Name:    iterationsFlag,
			Aliases: []string{"n"},
			Usage:   "Number of boosting rounds (optional, overrides config)",
		},
		&cli.StringFlag{
			Name:  policyFlag,
			Usage: "Weight function: cauchy, welsch, tukey or huber (optional, overrides config)",
		},
	}, extra...)
}

// dataFlags name the feature and target input files.
func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      featuresFlag,
			Aliases:   []string{"x"},
			Usage:     "Feature matrix file, .npy or .csv (required)",
			Required:  true,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      targetFlag,
			Aliases:   []string{"y"},
			Usage:     "Target vector file, .npy or .csv (required)",
			Required:  true,
			TakesFile: true,
		},
	}
}

func topFlagWithDefault(k int) cli.Flag {
	return &cli.IntFlag{
		Name:  topFlag,
		Usage: "Number of least trusted rows to list",
		Value: k,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		log.LogError(err, "command failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newApp builds the root command writing results to out.
func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s - (commit: %s)", version, commit),
		Usage:   "Robust boosting outlier weights for regression data",
		Writer:  out,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			newWeightsCmd(),
			newDemoCmd(),
			newBatchCmd(),
			newPlotCmd(),
			newRefitCmd(),
			newServeCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.SetOutput(cmd.Root().ErrWriter)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}
			level := cfg.LogLevel
			switch {
			case cmd.Bool(debugFlag):
				level = "debug"
			case cmd.IsSet(logLevelFlag):
				level = cmd.String(logLevelFlag)
			}
			log.SetupLogger(level)
			return ctx, nil
		},
	}
}

// loadConfig reads --config when given, or the defaults, and applies the
// per-run flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := cmd.String(configFlag); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overridden := false
	if cmd.IsSet(seedFlag) {
		cfg.Seed = cmd.Int64(seedFlag)
		overridden = true
	}
	if cmd.IsSet(iterationsFlag) {
		cfg.Iterations = cmd.Int(iterationsFlag)
		overridden = true
	}
	if cmd.IsSet(policyFlag) {
		cfg.Policy = cmd.String(policyFlag)
		overridden = true
	}
	if overridden {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
