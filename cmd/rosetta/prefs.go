package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spounge-ai/rosetta/internal/domain"
)

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change user preferences",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences, or the defaults when none are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			prefs, err := svc.Preferences.GetOrDefault(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), prefs.Props())
		},
	}

	var (
		theme, language, model, proxyURL string
		local                            bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update preferences",
		Long: `Only the flags given are changed. By default the update goes through the
running server so open tabs pick up a new theme; --local writes storage
directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			patch := domain.PreferencesProps{
				Theme:          theme,
				TargetLanguage: language,
				SelectedModel:  model,
			}
			if cmd.Flags().Changed("proxy-url") {
				patch.ProxyURL = &proxyURL
			}

			if local {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				prefs, err := svc.Preferences.Update(cmd.Context(), patch)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), prefs.Props())
			}

			ctx, client, done, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			props, err := client.UpdatePreferences(ctx, patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), props)
		},
	}
	f := set.Flags()
	f.StringVar(&theme, "theme", "", "Theme: dark, light or system")
	f.StringVar(&language, "language", "", "Target language code, e.g. en-US")
	f.StringVar(&model, "model", "", "Model id, e.g. gemini-2.5-flash")
	f.StringVar(&proxyURL, "proxy-url", "", "Gemini proxy URL; pass an empty value to clear it")
	f.BoolVar(&local, "local", false, "Write storage directly instead of going through the server")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete stored preferences so the defaults apply again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Preferences.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "preferences reset")
			return nil
		},
	}

	cmd.AddCommand(show, set, reset)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
