package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/theme"
)

var configInitOpts struct {
	force bool
}

// configCmd represents the config command group.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun(cmd, args)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	RunE:  configShowRun,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolvedConfigPath()
		if path == "" {
			return errors.New("cannot determine config path")
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE:  configInitRun,
}

var configThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List bundled and user color themes",
	Long: `List the color themes available to [display] theme.

User themes live in ~/.config/toastd/themes/<name>.toml and shadow bundled
themes of the same name. The active theme is marked with *.`,
	RunE: configThemesRun,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configThemesCmd)

	configInitCmd.Flags().BoolVar(&configInitOpts.force, "force", false,
		"Overwrite an existing config file")
}

func configShowRun(cmd *cobra.Command, args []string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func configInitRun(cmd *cobra.Command, args []string) error {
	path := resolvedConfigPath()
	if path == "" {
		return errors.New("cannot determine config path")
	}

	if _, err := os.Stat(path); err == nil && !configInitOpts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return err
}

func configThemesRun(cmd *cobra.Command, args []string) error {
	themes, err := theme.ListAvailableThemes()
	if err != nil {
		return fmt.Errorf("failed to list themes: %w", err)
	}

	active := cfg.Display.Theme
	if active == "" {
		active = theme.DefaultThemeName
	}

	out := cmd.OutOrStdout()
	for _, info := range themes {
		mark := " "
		if info.Name == active {
			mark = "*"
		}
		where := "bundled"
		if !info.IsBundled {
			where = info.Path
		}
		if _, err := fmt.Fprintf(out, "%s %-12s %s\n", mark, info.Name, where); err != nil {
			return err
		}
	}
	return nil
}
