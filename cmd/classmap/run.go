package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/classmap/internal/cache"
	"github.com/xonecas/classmap/internal/config"
	"github.com/xonecas/classmap/internal/index"
	"github.com/xonecas/classmap/internal/outline"
	"github.com/xonecas/classmap/internal/reduce"
	"github.com/xonecas/classmap/internal/server"
	"github.com/xonecas/classmap/internal/summarize"
)

// runtimeEnv bundles what every subcommand needs after flag and config
// resolution.
type runtimeEnv struct {
	cfg    *config.Config
	filter reduce.FilterMode
	svc    *summarize.Service
	cache  *cache.Cache // nil when caching is disabled
}

func (e *runtimeEnv) close() {
	if err := e.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close cache")
	}
}

// setup resolves config and flags into a runtime environment. withCache
// controls whether the sqlite cache is opened; one-shot single-file calls
// skip it.
func setup(cmd *cobra.Command, withCache bool) (*runtimeEnv, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	setupLogging(cfg.Log.LevelOrDefault())

	if f, _ := cmd.Flags().GetString("filter"); f != "" {
		cfg.Filter = f
	}
	filter, err := reduce.ParseFilterMode(cfg.Filter)
	if err != nil {
		return nil, err
	}

	env := &runtimeEnv{cfg: cfg, filter: filter}
	if withCache && cfg.Cache.Path != "" {
		ttl := time.Duration(cfg.Cache.TTLOrDefault()) * time.Hour
		c, err := cache.Open(cfg.Cache.Path, ttl)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Cache.Path).Msg("cache disabled")
		} else {
			env.cache = c
		}
	}

	env.svc = summarize.New(summarize.Options{
		Cache:       env.cache,
		MaxFileSize: cfg.MaxFileSize,
		Workers:     cfg.Workers,
	})
	return env, nil
}

// printJSON writes indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newFileCmd summarizes a single PHP file.
func newFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>",
		Short: "Summarize one PHP file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer env.close()

			res, err := env.svc.File(cmd.Context(), args[0], env.filter)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

// newDirCmd summarizes every PHP file under a directory.
func newDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir <path>",
		Short: "Summarize a directory of PHP files as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer env.close()

			report, err := env.svc.Dir(cmd.Context(), args[0], env.filter)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

// newOutlineCmd renders a directory as a compact text outline.
func newOutlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outline <path>",
		Short: "Render a compact text outline of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer env.close()

			report, err := env.svc.Dir(cmd.Context(), args[0], env.filter)
			if err != nil {
				return err
			}
			fmt.Print(outline.Format(report))
			return nil
		},
	}
}

// newWatchCmd keeps an index fresh and re-prints the outline on change.
func newWatchCmd() *cobra.Command {
	debounce := index.DefaultDebounce
	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Watch a directory, re-summarizing files as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer env.close()

			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			idx := index.New(env.svc, root, env.filter)
			if err := idx.Build(ctx); err != nil {
				return err
			}
			fmt.Print(outline.Format(idx.Snapshot()))

			err = idx.Watch(ctx, debounce, func(paths []string) {
				log.Info().Int("files", len(paths)).Msg("changes applied")
				fmt.Print(outline.Format(idx.Snapshot()))
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", index.DefaultDebounce, "Delay before applying a burst of changes")
	return cmd
}

// newServeCmd runs the HTTP API.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve summaries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer env.close()

			srv := server.New(env.cfg.Server.ListenOrDefault(), server.NewMux(env.svc, env.filter))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
