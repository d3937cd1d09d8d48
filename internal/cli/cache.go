package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached histories, layouts and renders",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheClear(cmd.Context())
		},
	}
}

func (c *CLI) runCacheClear(ctx context.Context) error {
	fc, err := c.fileCache()
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	count, err := fc.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear %s: %w", fc.Dir(), err)
	}
	if count == 0 {
		printInfo("Cache is empty")
	} else {
		printSuccess("Cleared %d cached entries", count)
	}
	printDetail("Directory: %s", fc.Dir())

	addr := c.Config.Cache.RedisAddr
	if addr == "" {
		return nil
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: addr, Prefix: redisPrefix})
	if err != nil {
		printWarning("Redis at %s not cleared: %v", addr, err)
		return nil
	}
	defer rc.Close()
	n, err := rc.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear redis %s: %w", addr, err)
	}
	printSuccess("Cleared %d Redis keys", n)
	printDetail("Redis: %s", addr)
	return nil
}

// cachePruneCommand creates the "cache prune" subcommand.
func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable entries from the file cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			removed, err := fc.Prune(cmd.Context())
			if err != nil {
				return fmt.Errorf("prune %s: %w", fc.Dir(), err)
			}
			left, err := fc.Len(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess("Pruned %d entries, %d left", removed, left)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.cacheDir())
			return nil
		},
	}
}
