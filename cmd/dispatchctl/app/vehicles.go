package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/dispatch/cmd/dispatchctl/app/options"
	"github.com/autopeer-io/dispatch/internal/dispatch/command"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/envelope"
	"github.com/autopeer-io/dispatch/internal/dispatch/importer"
	"github.com/autopeer-io/dispatch/pkg/log"
)

var errEmptyPatch = errors.New("nothing to change: set --route, --clear-route, --assigned or --towing")

func newPatchCommand(opts *options.CtlOptions) *cobra.Command {
	var (
		route      string
		clearRoute bool
		assigned   bool
		towing     bool
	)

	cmd := &cobra.Command{
		Use:   "patch ROOM VEHICLE",
		Short: "Change the route or flags of a vehicle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.VehiclePatch
			flags := cmd.Flags()
			if flags.Changed("route") {
				patch.HasRoute = true
				patch.Route = envelope.CoerceRoute(route)
			}
			if clearRoute {
				patch.HasRoute = true
				patch.Route = nil
			}
			if flags.Changed("assigned") {
				patch.Assigned = model.Bool(assigned)
			}
			if flags.Changed("towing") {
				patch.Towing = model.Bool(towing)
			}
			if patch.Empty() {
				return errEmptyPatch
			}

			ctx := cmd.Context()
			s := newRoomSession(opts, args[0])
			if _, err := s.load(ctx); err != nil {
				return err
			}
			if err := s.gateway.Patch(ctx, s.room, args[1], patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Vehicle %s updated.\n", args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&route, "route", "", "New route of the vehicle.")
	cmd.Flags().BoolVar(&clearRoute, "clear-route", false, "Remove the route of the vehicle.")
	cmd.Flags().BoolVar(&assigned, "assigned", false, "Whether the vehicle is assigned.")
	cmd.Flags().BoolVar(&towing, "towing", false, "Whether the vehicle is towing.")
	cmd.MarkFlagsMutuallyExclusive("route", "clear-route")
	return cmd
}

func newDeleteCommand(opts *options.CtlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ROOM VEHICLE",
		Short: "Delete a vehicle from a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newRoomSession(opts, args[0])
			if err := s.gateway.Delete(cmd.Context(), s.room, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Vehicle %s deleted.\n", args[1])
			return nil
		},
	}
}

func newImportCommand(opts *options.CtlOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "import ROOM FILE",
		Short: "Create vehicles from a JSON seed file",
		Long: `Create vehicles from a JSON array of {id, ownerId, name, depot} records.
With --watch the file is imported again whenever its content changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newRoomSession(opts, args[0])
			out := cmd.OutOrStdout()
			importFn := func(ctx context.Context, data []byte) (string, error) {
				seeds, err := command.ParseSeeds(data)
				if err != nil {
					return "", err
				}
				msg, err := s.gateway.Import(ctx, s.room, seeds)
				if err != nil {
					return "", err
				}
				fmt.Fprintln(out, msg)
				return msg, nil
			}

			if !watch {
				data, err := os.ReadFile(args[1])
				if err != nil {
					return err
				}
				_, err = importFn(cmd.Context(), data)
				return err
			}

			ctx := genericapiserver.SetupSignalContext()
			w := importer.NewWatcher(args[1], opts.ImportOptions.Debounce, importFn, log.WithName("importer"))
			if err := w.ImportOnce(ctx); err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and import the file again when it changes.")
	return cmd
}
