package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ladlehq/ladle/internal/logger"
	"github.com/ladlehq/ladle/pkg/cache"
	"github.com/ladlehq/ladle/pkg/cleaner"
	"github.com/ladlehq/ladle/pkg/extractor"
	"github.com/ladlehq/ladle/pkg/ladle"
	"github.com/ladlehq/ladle/pkg/recipe"
)

// wrappedResult wraps the extracted recipes with provenance metadata.
type wrappedResult struct {
	Metadata resultMetadata  `json:"_metadata"`
	IsRecipe bool            `json:"is_recipe"`
	Recipes  []recipe.Recipe `json:"recipes"`
}

type resultMetadata struct {
	URL          string  `json:"url,omitempty"`
	Fingerprint  string  `json:"fingerprint"`
	Strategy     string  `json:"strategy,omitempty"`
	Reduction    float64 `json:"reduction,omitempty"`
	Confidence   float64 `json:"confidence"`
	Attempts     int     `json:"attempts,omitempty"`
	Cached       bool    `json:"cached"`
	CacheVersion int     `json:"cache_version"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	DurationMs   int64   `json:"duration_ms,omitempty"`
	StorageURL   string  `json:"storage_url,omitempty"`
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract recipe data from a URL or file",
	Long: `Extract structured recipe data from a web page.

The page is cleaned, sent to the configured LLM under a strict JSON
schema, validated, and cached. A repeat extraction of the same page is
served from the cache without a model call.

Examples:
  # Extract from a URL
  ladle extract -u "https://example.com/best-pancakes"

  # Extract from a local HTML file
  ladle extract -f page.html

  # Bypass the cache and refresh the stored result
  ladle extract -u "https://example.com/best-pancakes" --skip-cache`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()

	flags.StringP("url", "u", "", "URL to extract from")
	flags.StringP("file", "f", "", "local HTML file to extract from")

	flags.StringP("provider", "p", "", "LLM provider: gemini, openai, anthropic (default gemini)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.Duration("timeout", 120*time.Second, "LLM request timeout")

	flags.Int("max-attempts", 3, "max extraction attempts per page")
	flags.String("cleaner-config", "", "path to a JSON or YAML cleanup threshold config")
	flags.String("max-content-size", "150KB", "max input content size (e.g., 100KB, 1MB, 0=unlimited)")
	flags.Bool("skip-cache", false, "bypass the cache and force a fresh extraction")

	flags.StringP("output", "o", "", "output file (default: stdout)")

	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	url, _ := cmd.Flags().GetString("url")
	file, _ := cmd.Flags().GetString("file")
	if url == "" && file == "" {
		return cmd.Help()
	}

	var text string
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			logError("failed to read %s: %v", file, err)
			return err
		}
		text = string(data)
	}

	store, err := cache.OpenSQLite(cacheDBPath())
	if err != nil {
		logError("failed to open cache: %v", err)
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	skipCache, _ := cmd.Flags().GetBool("skip-cache")

	extractorCfg := extractor.DefaultConfig()
	extractorCfg.MaxAttempts = maxAttempts

	maxContentSizeStr, _ := cmd.Flags().GetString("max-content-size")
	if s := strings.TrimSpace(maxContentSizeStr); s != "" {
		if s == "0" {
			extractorCfg.MaxContentSize = 0
		} else {
			size, err := humanize.ParseBytes(s)
			if err != nil {
				logError("invalid max-content-size %q: %v", s, err)
				_ = store.Close()
				return err
			}
			extractorCfg.MaxContentSize = int(size)
		}
	}

	opts := []ladle.Option{
		ladle.WithProvider(viper.GetString("provider")),
		ladle.WithModel(viper.GetString("model")),
		ladle.WithAPIKey(viper.GetString("api_key")),
		ladle.WithBaseURL(viper.GetString("base_url")),
		ladle.WithTimeout(timeout),
		ladle.WithExtractorConfig(extractorCfg),
		ladle.WithStore(store),
	}

	if path, _ := cmd.Flags().GetString("cleaner-config"); path != "" {
		cleanerCfg, err := cleaner.FromFile(path)
		if err != nil {
			logError("failed to load cleaner config: %v", err)
			_ = store.Close()
			return err
		}
		opts = append(opts, ladle.WithCleanerConfig(cleanerCfg))
	}

	l, err := ladle.New(opts...)
	if err != nil {
		logError("failed to initialize: %v", err)
		_ = store.Close()
		return err
	}
	defer func() { _ = l.Close() }()

	logInfo("Extracting %s...", firstNonEmpty(url, file))

	out, err := l.Extract(ctx, ladle.Input{URL: url, Text: text, SkipCache: skipCache})
	if err != nil {
		logError("extraction failed: %v", err)
		return err
	}

	if out.Cached {
		logInfo("Served from cache (version %d)", out.Version)
	} else {
		logInfo("Extracted in %d attempt(s) using the %s strategy", out.Attempts, out.Strategy)
	}

	wrapped := wrappedResult{
		Metadata: resultMetadata{
			URL:          url,
			Fingerprint:  out.Fingerprint,
			Strategy:     out.Strategy,
			Reduction:    out.Reduction,
			Confidence:   out.Confidence,
			Attempts:     out.Attempts,
			Cached:       out.Cached,
			CacheVersion: out.Version,
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
			DurationMs:   out.Duration.Milliseconds(),
			StorageURL:   out.StorageURL,
		},
		IsRecipe: out.IsRecipe,
		Recipes:  out.Recipes,
	}

	rendered, err := json.MarshalIndent(wrapped, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		fmt.Println(string(rendered))
		return nil
	}
	if err := os.WriteFile(outputPath, append(rendered, '\n'), 0o644); err != nil {
		logError("failed to write %s: %v", outputPath, err)
		return err
	}
	logInfo("Wrote %s", outputPath)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
