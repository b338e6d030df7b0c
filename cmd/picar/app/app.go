package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/picar/cmd/picar/app/options"
	"github.com/autopeer-io/picar/pkg/app"
	"github.com/autopeer-io/picar/pkg/log"
)

const (
	commandName = "picar"
	commandDesc = `picar drives a four-wheel differential car. It serves a web dashboard,
a gRPC API and optionally bridges commands and telemetry over MQTT and
archives snapshots to S3 compatible storage.

Run with --vehicle.simulate to try it without hardware.`
)

func NewApp() *app.App {
	opts := options.NewPicarOptions()
	application := app.NewApp(
		commandName,
		"Launch the picar agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithSubCommands(newStatusCommand(), newDoCommand(), newWatchCommand()),
	)
	return application
}

func run(opts *options.PicarOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		return agent.Run(ctx)
	}
}
