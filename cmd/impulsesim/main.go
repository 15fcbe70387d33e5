// Command impulsesim runs a canned scene headless and logs the body transforms.
package main

import (
	"os"

	"github.com/akmonengine/impulse"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "impulsesim",
		Short:        "Headless rigid body simulation",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand())

	return root
}

type runOptions struct {
	config string
	ticks  int
	dt     float64
	scene  string
	every  int
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scene for a number of ticks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.config, "config", "", "world config file (.toml, .yaml)")
	flags.IntVar(&opts.ticks, "ticks", 600, "number of ticks to simulate")
	flags.Float64Var(&opts.dt, "dt", 1.0/60.0, "duration of a tick in seconds")
	flags.StringVar(&opts.scene, "scene", "drop", "scene to run: "+sceneNames())
	flags.IntVar(&opts.every, "every", 60, "log the bodies every n ticks, 0 logs the last tick only")

	return cmd
}

func run(opts runOptions) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	config := impulse.DefaultConfig()
	if opts.config != "" {
		var err error
		if config, err = impulse.LoadConfig(opts.config); err != nil {
			return err
		}
	}

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if opts.ticks <= 0 || !(opts.dt > 0) {
		return errors.Errorf("ticks and dt must be positive, got %d and %f", opts.ticks, opts.dt)
	}

	build, ok := scenes[opts.scene]
	if !ok {
		return errors.Errorf("unknown scene %q, expected one of %s", opts.scene, sceneNames())
	}

	world := impulse.NewWorld(config, log)
	if err := build(world); err != nil {
		return errors.Wrapf(err, "building scene %s", opts.scene)
	}

	printer := &eventPrinter{log: log}
	world.Subscribe(printer)

	for tick := 1; tick <= opts.ticks; tick++ {
		world.Update(opts.dt)

		if (opts.every > 0 && tick%opts.every == 0) || tick == opts.ticks {
			logBodies(log, world, tick)
		}
	}

	log.WithFields(logrus.Fields{
		"ticks":      opts.ticks,
		"collisions": printer.begins,
	}).Info("simulation done")

	return nil
}
