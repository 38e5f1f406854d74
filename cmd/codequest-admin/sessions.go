package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	redisadapter "github.com/codequest/codequest-web/internal/adapters/redis"
	"github.com/codequest/codequest-web/internal/bootstrap"
)

const sessionDeleteBatch = 500

type clearSessionsOptions struct {
	DryRun bool
	Yes    bool
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionsFlags(args, cmdCtx.Err)
	if err != nil {
		return err
	}
	if !cmdCtx.Config.UsesRedis() {
		return errors.New("sessions are not stored in redis; restarting the server clears the in-memory store")
	}
	if !opts.DryRun && !opts.Yes {
		if confirmErr := confirmAction(cmdCtx, "WARNING: this signs out every visitor."); confirmErr != nil {
			return confirmErr
		}
	}

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	stats, err := clearSessions(cmdCtx.Ctx, client, opts, cmdCtx.Logger)
	if err != nil {
		return err
	}
	return printClearSessionsSummary(cmdCtx.Out, stats, opts.DryRun)
}

type clearSessionsStats struct {
	matched int
	deleted int64
}

func clearSessions(
	ctx context.Context,
	client redis.UniversalClient,
	opts clearSessionsOptions,
	logger *slog.Logger,
) (clearSessionsStats, error) {
	pattern := redisadapter.DefaultKeyPrefix + "*"
	logger.InfoContext(ctx, "scanning redis", "pattern", pattern, "dry_run", opts.DryRun)

	stats := clearSessionsStats{}
	batch := make([]string, 0, sessionDeleteBatch)
	flush := func() error {
		if len(batch) == 0 || opts.DryRun {
			batch = batch[:0]
			return nil
		}
		n, err := client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		stats.deleted += n
		batch = batch[:0]
		return nil
	}

	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		stats.matched++
		batch = append(batch, iter.Val())
		if len(batch) == sessionDeleteBatch {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return stats, fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

func printClearSessionsSummary(w io.Writer, stats clearSessionsStats, dryRun bool) error {
	if dryRun {
		return writef(w, "[dry-run] %d session(s) would be deleted\n", stats.matched)
	}
	return writef(w, "deleted %d of %d session(s)\n", stats.deleted, stats.matched)
}

func parseClearSessionsFlags(args []string, stderr io.Writer) (clearSessionsOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := clearSessionsOptions{}
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Count matching sessions without deleting them")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return clearSessionsOptions{}, err
	}
	return opts, nil
}
