package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// initCmd runs an interactive wizard that writes a starter membank.yaml.
func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("output")

			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", out)
			}

			var (
				providerID  = "provider.gemini"
				model       string
				storeID     = "store.sqlite"
				bind        = "127.0.0.1:8080"
				bearerToken string
				enableSweep = true
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewSelect[string]().
						Title("LLM provider").
						Description("Performs fact extraction and relevance ranking.").
						Options(
							huh.NewOption("Google Gemini", "provider.gemini"),
							huh.NewOption("OpenAI", "provider.openai"),
							huh.NewOption("Anthropic", "provider.anthropic"),
						).
						Value(&providerID),
					huh.NewInput().
						Title("Model").
						Placeholder("leave empty for the provider default").
						Value(&model),
				),
				huh.NewGroup(
					huh.NewSelect[string]().
						Title("Storage backend").
						Options(
							huh.NewOption("SQLite (single file, recommended)", "store.sqlite"),
							huh.NewOption("PostgreSQL (DATABASE_URL)", "store.postgres"),
							huh.NewOption("In-memory (lost on restart)", "none"),
						).
						Value(&storeID),
				),
				huh.NewGroup(
					huh.NewInput().
						Title("HTTP bind address").
						Value(&bind),
					huh.NewInput().
						Title("API bearer token").
						Placeholder("leave empty to run without auth").
						Value(&bearerToken),
					huh.NewConfirm().
						Title("Enable the background extraction sweep?").
						Value(&enableSweep),
				),
			)

			if err := form.Run(); err != nil {
				return err
			}

			cfg := renderConfig(providerID, model, storeID, bind, bearerToken, enableSweep)
			if err := os.WriteFile(out, []byte(cfg), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			fmt.Printf("Wrote %s\n", out)
			fmt.Println("Start with: membank start --config", out)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "membank.yaml", "Output path for the configuration file")
	return cmd
}

// renderConfig builds the YAML text for the wizard's answers.
func renderConfig(providerID, model, storeID, bind, bearerToken string, enableSweep bool) string {
	var sb strings.Builder

	sb.WriteString("version: \"1\"\n\nmodules:\n")

	if model != "" {
		fmt.Fprintf(&sb, "  %s:\n    model: %q\n", providerID, model)
	} else {
		fmt.Fprintf(&sb, "  %s: {}\n", providerID)
	}

	if storeID != "none" {
		fmt.Fprintf(&sb, "  %s: {}\n", storeID)
	}

	sb.WriteString("  gateway.http:\n")
	fmt.Fprintf(&sb, "    bind: %q\n", bind)
	if bearerToken != "" {
		sb.WriteString("    auth:\n")
		fmt.Fprintf(&sb, "      bearer_token: %q\n", bearerToken)
	}

	if enableSweep {
		sb.WriteString("\nsweep:\n  enabled: true\n  schedule: \"*/10 * * * *\"\n  max_idle: 30m\n")
	}

	return sb.String()
}
