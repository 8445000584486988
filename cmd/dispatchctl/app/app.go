package app

import (
	"github.com/autopeer-io/dispatch/cmd/dispatchctl/app/options"
	"github.com/autopeer-io/dispatch/pkg/app"
)

const (
	commandName = "dispatchctl"
	commandDesc = `dispatchctl runs one-shot operations against the dispatch service: print
the roster of a room, edit, delete or bulk import vehicles, look up and manage
rooms, and probe the health of a running dispatch agent.`
)

func NewApp() *app.App {
	opts := options.NewCtlOptions()
	application := app.NewApp(
		commandName,
		"Inspect and edit dispatch rooms",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithSubCommands(
			newRosterCommand(opts),
			newPatchCommand(opts),
			newDeleteCommand(opts),
			newImportCommand(opts),
			newRoomsCommand(opts),
			newHealthCommand(opts),
		),
	)
	return application
}
