package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/spounge-ai/rosetta/internal/domain"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved translations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved translations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				all, err := svc.History.GetAll(cmd.Context())
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), all)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Print one translation as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				t, found, err := svc.History.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("translation %s not found", args[0])
				}
				return printJSON(cmd.OutOrStdout(), t.Props())
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete one translation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				return svc.History.Delete(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every saved translation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				return svc.History.Clear(cmd.Context())
			},
		},
	)
	return cmd
}

func printHistory(w io.Writer, all []domain.Translation) {
	if len(all) == 0 {
		fmt.Fprintln(w, "no translations saved")
		return
	}
	for _, t := range all {
		fmt.Fprintf(w, "%s  %s  %s -> %s\n",
			t.ID(), t.CreatedAt().Format(time.DateTime), firstText(t.Original()), firstText(t.Translated()))
	}
}

func firstText(segments []domain.TextSegment) string {
	if len(segments) == 0 {
		return "-"
	}
	return fmt.Sprintf("%q", segments[0].Text())
}
