package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spounge-ai/rosetta/internal/messaging"
)

// The commands in this file talk to a running "rosetta serve".

func newTriggerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger [COMMAND]",
		Short: "Fire a keyboard shortcut command, START_EXTENSION by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := messaging.CommandStartExtension
			if len(args) == 1 {
				command = messaging.Command(args[0])
			}

			ctx, client, done, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			handled, err := client.Command(ctx, command)
			if err != nil {
				return err
			}
			if !handled {
				fmt.Fprintf(cmd.OutOrStdout(), "%s ignored\n", command)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s handled\n", command)
			return nil
		},
	}
}

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send TO MESSAGE",
		Short: "Send a raw JSON message to a context and print the reply",
		Long: `TO is "background" or "tab:<id>". MESSAGE is the JSON message, e.g.

  rosetta send tab:1 '{"action":"SHOW_TOAST","payload":{"type":"info","message":"hi"}}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := json.RawMessage(args[1])
			if !json.Valid(raw) {
				return fmt.Errorf("message is not valid JSON")
			}

			ctx, client, done, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			reply, err := client.Send(ctx, args[0], raw)
			if err != nil {
				return err
			}
			if reply == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no reply")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(reply))
			return nil
		},
	}
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that a server is running and healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, client, done, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			ok, err := client.Healthy(ctx)
			if err != nil {
				return fmt.Errorf("server at %s is unreachable: %w", a.cfg.Server.Address, err)
			}
			if !ok {
				return fmt.Errorf("server at %s is not serving", a.cfg.Server.Address)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "server at %s is serving\n", a.cfg.Server.Address)
			return nil
		},
	}
}
