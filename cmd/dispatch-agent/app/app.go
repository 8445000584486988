package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/dispatch/cmd/dispatch-agent/app/options"
	"github.com/autopeer-io/dispatch/pkg/app"
)

const (
	commandName = "dispatch-agent"
	commandDesc = `The dispatch agent keeps the vehicle roster of a dispatch room in sync
with the live event stream of the dispatch service. It serves the roster,
vehicle edits and bulk imports over a local HTTP API, reports stream health
over gRPC, and can relay the roster to MQTT and archive it to S3.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()
	application := app.NewApp(
		commandName,
		"Launch a dispatch roster agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.AgentOptions) app.RunFunc {
	return func() error {
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
