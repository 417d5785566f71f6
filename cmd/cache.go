package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"stormlightlabs.org/gamedb/internal/echo"
)

// CacheCmd creates the cache command group
func CacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Cache inspection and management",
		Long:  "Inspect and manage the Redis cache used for chronicler responses and status reads.",
	}

	cmd.AddCommand(CacheStatsCmd())
	cmd.AddCommand(CacheClearCmd())
	return cmd
}

// CacheStatsCmd shows cache statistics for a given pattern
func CacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [pattern]",
		Short: "Show cache statistics",
		Long:  "Display statistics for cache keys matching a pattern (e.g., 'gamedb:*:upstream:*'). Defaults to all gamedb keys.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showCacheStats,
	}
}

// CacheClearCmd deletes cache keys matching a prefix
func CacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <prefix>",
		Short: "Delete cache keys by prefix",
		Long:  "Delete every cache key under a prefix. Prefer bumping cache.version for bulk invalidation in production.",
		Args:  cobra.ExactArgs(1),
		RunE:  clearCache,
	}
}

func showCacheStats(cmd *cobra.Command, args []string) error {
	echo.Header("Cache Stats")

	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return fmt.Errorf("error: failed to load config: %w", err)
	}

	client := connectCache(cmd, cfg)
	if client == nil {
		return fmt.Errorf("error: cache is disabled or Redis is unreachable")
	}
	defer client.Redis.Close()

	pattern := "gamedb:*"
	if len(args) == 1 {
		pattern = args[0]
	}

	stats, err := client.GetStats(cmd.Context(), pattern)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Infof("Pattern: %s", pattern)
	echo.Infof("Keys: %d", stats.Count)

	keys := append([]string(nil), stats.Keys...)
	sort.Strings(keys)
	for _, key := range keys {
		echo.Infof("  %s (TTL %s)", key, formatTTL(stats.TTLs[key]))
	}

	return nil
}

func clearCache(cmd *cobra.Command, args []string) error {
	echo.Header("Cache Clear")

	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return fmt.Errorf("error: failed to load config: %w", err)
	}

	client := connectCache(cmd, cfg)
	if client == nil {
		return fmt.Errorf("error: cache is disabled or Redis is unreachable")
	}
	defer client.Redis.Close()

	deleted, err := client.InvalidateByPrefix(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Successf("✓ Deleted %d key(s)", deleted)
	return nil
}
