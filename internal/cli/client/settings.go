package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ConfigCmd creates the config parent command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage client settings",
		Long:  "Store, show and clear the server URL and admin token used by the groundqa CLI",
	}

	cmd.AddCommand(ConfigSetCmd())
	cmd.AddCommand(ConfigShowCmd())
	cmd.AddCommand(ConfigClearCmd())

	return cmd
}

// ConfigSetCmd creates the config set command
func ConfigSetCmd() *cobra.Command {
	var apiURL, adminToken string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store settings in the global config",
		Long:  "Store the server URL and admin token in ~/.config/groundqa/config.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadGlobalConfig()
			if err != nil {
				return err
			}
			if config == nil {
				config = &GlobalConfig{}
			}
			if cmd.Flags().Changed("url") {
				config.APIURL = apiURL
			}
			if cmd.Flags().Changed("token") {
				config.AdminToken = adminToken
			}
			if err := SaveGlobalConfig(config); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "url", defaultAPIURL, "Server URL")
	cmd.Flags().StringVar(&adminToken, "token", "", "Admin token for reload")

	return cmd
}

// ConfigShowCmd creates the config show command
func ConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			flagURL, _ := cmd.Flags().GetString("api-url")
			flagToken, _ := cmd.Flags().GetString("admin-token")
			source, apiURL, token, err := ResolveSettings(flagURL, flagToken)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				data, _ := json.MarshalIndent(map[string]interface{}{
					"api_url":     apiURL,
					"source":      string(source),
					"admin_token": maskToken(token),
				}, "", "  ")
				fmt.Fprintln(w, string(data))
				return nil
			}

			fmt.Fprintf(w, "API URL: %s (%s)\n", apiURL, source)
			fmt.Fprintf(w, "Admin token: %s\n", maskToken(token))
			return nil
		},
	}
}

// ConfigClearCmd creates the config clear command
func ConfigClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DeleteGlobalConfig(); err != nil {
				return fmt.Errorf("failed to clear settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings cleared")
			return nil
		},
	}
}

func maskToken(token string) string {
	switch {
	case token == "":
		return "(none)"
	case len(token) < 8:
		return "***"
	default:
		return token[:3] + "..." + token[len(token)-2:]
	}
}
