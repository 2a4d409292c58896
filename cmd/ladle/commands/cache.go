package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ladlehq/ladle/internal/logger"
	"github.com/ladlehq/ladle/pkg/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the extraction cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		count, err := store.Count(context.Background())
		if err != nil {
			logError("failed to read cache: %v", err)
			return err
		}
		fmt.Printf("Entries: %d\nDatabase: %s\n", count, cacheDBPath())
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <url>",
	Short: "Remove the cached entry for a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		fingerprint := cache.Fingerprint(args[0], "")
		if err := store.Delete(context.Background(), fingerprint); err != nil {
			logError("failed to delete entry: %v", err)
			return err
		}
		logInfo("Deleted entry %s", fingerprint)
		return nil
	},
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Show the cached result for a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		fingerprint := cache.Fingerprint(args[0], "")
		entry, err := store.Get(context.Background(), fingerprint)
		if err == cache.ErrNotFound {
			logInfo("No cached entry for %s", args[0])
			return nil
		}
		if err != nil {
			logError("failed to read entry: %v", err)
			return err
		}

		logInfo("Fingerprint: %s\nVersion: %d\nValid: %v\nUpdated: %s",
			entry.Fingerprint, entry.Version, entry.IsValid, entry.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Println(string(entry.Result))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheGetCmd)
}

func openCache() (*cache.SQLiteStore, error) {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	store, err := cache.OpenSQLite(cacheDBPath())
	if err != nil {
		logError("failed to open cache: %v", err)
		return nil, err
	}
	return store, nil
}
