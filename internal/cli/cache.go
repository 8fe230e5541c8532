package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/changelens/internal/cache"
	"github.com/dshills/changelens/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

func openCache(cfg config.Config, force bool) (cache.Store, error) {
	store, err := cache.Open(cache.Options{
		Enabled:    cfg.Cache.Enabled || force,
		Dir:        cfg.Cache.Dir,
		TTLSeconds: cfg.Cache.TTLSeconds,
		RedisAddr:  cfg.Cache.RedisAddr,
	})
	return store, errors.Wrap(err, "opening cache")
}

func closeStore(store cache.Store) {
	if c, ok := store.(io.Closer); ok {
		c.Close() //nolint:errcheck
	}
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			fail(cmd.ErrOrStderr(), err, ExitUsageError)
			return nil
		}
		store, err := openCache(cfg, true)
		if err != nil {
			fail(cmd.ErrOrStderr(), err, ExitRuntimeError)
			return nil
		}
		defer closeStore(store)

		if err := store.Clear(cmd.Context()); err != nil {
			fail(cmd.ErrOrStderr(), errors.Wrap(err, "clearing cache"), ExitRuntimeError)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			fail(cmd.ErrOrStderr(), err, ExitUsageError)
			return nil
		}
		store, err := openCache(cfg, false)
		if err != nil {
			fail(cmd.ErrOrStderr(), err, ExitRuntimeError)
			return nil
		}
		defer closeStore(store)

		if !store.Enabled() {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
			return nil
		}
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			fail(cmd.ErrOrStderr(), errors.Wrap(err, "reading cache stats"), ExitRuntimeError)
			return nil
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
