package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/dispatch/cmd/dispatchctl/app/options"
	"github.com/autopeer-io/dispatch/internal/dispatch/remote"
)

func newRoomsCommand(opts *options.CtlOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Look up, open and close dispatch rooms",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "lookup GROUP",
			Short: "Print the active room of a group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client := remote.New(opts.APIOptions)
				id, err := client.ActiveRoom(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if id == "" {
					return fmt.Errorf("group %s has no active room", args[0])
				}
				room, err := client.Room(cmd.Context(), id)
				if err != nil {
					return err
				}
				if room == nil {
					fmt.Fprintln(cmd.OutOrStdout(), id)
					return nil
				}
				writeRoom(cmd.OutOrStdout(), room)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get ROOM",
			Short: "Print the details of a room",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				room, err := remote.New(opts.APIOptions).Room(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if room == nil {
					return fmt.Errorf("room %s not found", args[0])
				}
				writeRoom(cmd.OutOrStdout(), room)
				return nil
			},
		},
		&cobra.Command{
			Use:   "open EVENT",
			Short: "Open a room for an event and print its id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := remote.New(opts.APIOptions).OpenRoom(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if id == "" {
					return fmt.Errorf("the dispatch service returned no room id")
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "close ROOM",
			Short: "Close a room",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				closed, err := remote.New(opts.APIOptions).CloseRoom(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !closed {
					return fmt.Errorf("room %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Room %s closed.\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
