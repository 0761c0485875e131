package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spounge-ai/rosetta/internal/domain"
)

// keyFile is the layout "keys import" reads.
type keyFile struct {
	Keys []string `yaml:"keys"`
	Mode string   `yaml:"mode"`
}

func newKeysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored API keys",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored keys; the active one is marked with *",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				set, _, err := svc.Auth.GetCredentials(cmd.Context())
				if err != nil {
					return err
				}
				mode, err := svc.Auth.GetKeySelectionMode(cmd.Context())
				if err != nil {
					return err
				}
				printKeys(cmd.OutOrStdout(), set, mode)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add KEY",
			Short: "Validate a Gemini (AIza...) or Groq (gsk_...) key, store it and make it active",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				set, err := svc.Auth.AddAPIKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", set.ActiveID())
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove ID",
			Short: "Remove a stored key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				set, err := svc.Auth.RemoveAPIKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s, %d key(s) left\n", args[0], set.Len())
				return nil
			},
		},
		&cobra.Command{
			Use:   "use ID",
			Short: "Make a stored key the active one",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				if _, err := svc.Auth.SetActiveKey(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "active key is now %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Add every key listed in a YAML file",
			Long: `Reads a file of the form

  keys:
    - AIza...
    - gsk_...
  mode: auto-balance:gemini

Keys are added in order, so the last one ends up active. The mode is
optional and applied after all keys are stored.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				kf, err := readKeyFile(args[0])
				if err != nil {
					return err
				}
				svc, err := a.services(cmd.Context())
				if err != nil {
					return err
				}
				for i, raw := range kf.Keys {
					if _, err := svc.Auth.AddAPIKey(cmd.Context(), raw); err != nil {
						return fmt.Errorf("key %d: %w", i+1, err)
					}
				}
				if kf.Mode != "" {
					mode, err := domain.ParseKeySelectionMode(kf.Mode)
					if err != nil {
						return err
					}
					if err := svc.Auth.SetKeySelectionMode(cmd.Context(), mode); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d key(s)\n", len(kf.Keys))
				return nil
			},
		},
		newModeCmd(a),
	)
	return cmd
}

func newModeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mode [MODE]",
		Short: "Show or set how the active key is chosen",
		Long: `Without an argument prints the current mode. Valid modes are "manual",
"auto-balance:gemini" and "auto-balance:groq". Auto-balance needs at least
two stored keys for its provider.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				mode, err := svc.Auth.GetKeySelectionMode(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", mode, mode.Label())
				return nil
			}

			mode, err := domain.ParseKeySelectionMode(args[0])
			if err != nil {
				return err
			}
			if err := svc.Auth.SetKeySelectionMode(cmd.Context(), mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key selection mode set to %s\n", mode)
			return nil
		},
	}
}

func readKeyFile(path string) (keyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return keyFile{}, fmt.Errorf("failed to read key file: %w", err)
	}
	var kf keyFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return keyFile{}, fmt.Errorf("failed to parse key file: %w", err)
	}
	if len(kf.Keys) == 0 {
		return keyFile{}, fmt.Errorf("key file %s lists no keys", path)
	}
	return kf, nil
}

func printKeys(w io.Writer, set domain.CredentialSet, mode domain.KeySelectionMode) {
	fmt.Fprintf(w, "mode: %s\n", mode)
	if !set.HasKeys() {
		fmt.Fprintln(w, "no keys stored")
		return
	}
	for _, c := range set.Items() {
		marker := " "
		if c.ID() == set.ActiveID() {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %-6s  %s\n", marker, c.ID(), c.Provider(), c.APIKey())
	}
}
