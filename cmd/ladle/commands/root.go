// Package commands implements the CLI commands for ladle.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ladlehq/ladle/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ladle",
	Short: "LLM-powered recipe extraction from web pages",
	Long: `Ladle extracts structured, validated recipe data from web pages.

Pages are reduced through a cascade of cleanup strategies, sent to an
LLM under a strict JSON schema, validated, and cached by content
fingerprint so repeat extractions cost nothing.

Examples:
  # Extract a recipe from a URL
  ladle extract -u "https://example.com/best-pancakes"

  # Extract from a saved HTML file
  ladle extract -f page.html

  # Force a fresh extraction, bypassing the cache
  ladle extract -u "https://example.com/best-pancakes" --skip-cache

  # Use a specific provider and model
  ladle extract -u "https://example.com/best-pancakes" \
      -p anthropic -m claude-sonnet-4-5`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.ladle.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().String("cache-db", "", "path to the SQLite cache database (default $HOME/.ladle-cache.db)")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("cache_db", rootCmd.PersistentFlags().Lookup("cache-db"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".ladle")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LADLE")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")

	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// cacheDBPath resolves the cache database location.
func cacheDBPath() string {
	if path := viper.GetString("cache_db"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ladle-cache.db"
	}
	return home + "/.ladle-cache.db"
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
