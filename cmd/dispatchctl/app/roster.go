package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/dispatch/cmd/dispatchctl/app/options"
	"github.com/autopeer-io/dispatch/internal/dispatch/category"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/service"
)

func newRosterCommand(opts *options.CtlOptions) *cobra.Command {
	var (
		query   string
		grouped bool
	)

	cmd := &cobra.Command{
		Use:   "roster ROOM",
		Short: "Print the roster of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := newRoomSession(opts, args[0])

			vehicles, err := s.load(ctx)
			if err != nil {
				return err
			}
			owners := s.profiles.Resolve(ctx, service.OwnerIDs(vehicles))
			vehicles = service.Filter(vehicles, owners, query)

			out := cmd.OutOrStdout()
			if !grouped {
				writeVehicles(out, vehicles, owners)
				return nil
			}
			for _, g := range category.GroupVehicles(vehicles) {
				if len(g.Vehicles) == 0 {
					continue
				}
				fmt.Fprintf(out, "%s (%d)\n", g.Label, len(g.Vehicles))
				writeVehicles(out, g.Vehicles, owners)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Only show vehicles whose id, name, depot, route or owner contains the query.")
	cmd.Flags().BoolVar(&grouped, "groups", false, "Group the vehicles by category.")
	return cmd
}
