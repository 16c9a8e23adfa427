package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/guildmetrics/internal/config"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(configPath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the configuration file")
	return cmd
}

func runValidate(configPath string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		color.Red("✗ %s", configPath)
		return err
	}

	effective := *cfg
	effective.Discord.Token = redact(cfg.Discord.Token)
	data, err := yaml.Marshal(&effective)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	fmt.Fprintln(out, color.GreenString("✓ %s", configPath))
	_, err = out.Write(data)
	return err
}
