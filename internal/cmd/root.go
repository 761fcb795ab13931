package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	colorMode string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcptap",
	Short: "mcptap — transparent MCP stdio proxy logger",
	Long: `mcptap sits between an MCP client and a stdio MCP server, forwarding
the JSON-RPC traffic byte-for-byte while logging a human-readable rendering
of every message to a session log file. A companion tail command streams
that log to your terminal with highlighting, following rotation.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.mcptap.yaml)")
	rootCmd.PersistentFlags().String("log-dir", "", "directory for session log files (default: $HOME/.mcptap/logs)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "colorize output: auto, always, never")

	_ = viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".mcptap")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MCPTAP")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// resolveLogDir returns the configured log directory, defaulting to
// ~/.mcptap/logs.
func resolveLogDir() (string, error) {
	if dir := viper.GetString("log_dir"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mcptap", "logs"), nil
}

// colorEnabled maps the --color mode to a boolean. "auto" defers to the
// styling library's own terminal detection; "always" forces a color profile
// so styling survives pipes and redirection.
func colorEnabled() bool {
	switch viper.GetString("color") {
	case "never":
		return false
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
		return true
	default:
		return true
	}
}
