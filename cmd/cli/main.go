// wingquest is a terminal client for the booking backend. It keeps its
// session and chat history in the configured client storage, so a file or
// redis driver lets a login survive between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/wingquest/config"
	"github.com/Domenick1991/wingquest/internal/client"
	"github.com/Domenick1991/wingquest/internal/service/chat"
	"github.com/Domenick1991/wingquest/internal/session"
	"github.com/Domenick1991/wingquest/internal/storage"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config.yaml"
	}

	flagSet := pflag.NewFlagSet("wingquest", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	configPath := flagSet.String("config", defaultConfig, "path to the YAML config")
	verbose := flagSet.BoolP("verbose", "v", false, "log debug output to stderr")
	flagSet.Usage = func() { printUsage(out, flagSet) }
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		printUsage(out, flagSet)
		return nil
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, closeStore, err := storage.Open(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStore()

	c, err := newCLI(ctx, cfg, store, out, logger)
	if err != nil {
		return err
	}
	return c.dispatch(ctx, flagSet.Args())
}

// newCLI restores the stored session and binds an API client to it.
func newCLI(ctx context.Context, cfg *config.Config, store storage.Storage, out io.Writer, logger *slog.Logger) (*cli, error) {
	sess := session.New(store, cfg.Session, session.WithLogger(logger))
	if err := sess.Load(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	api := client.New(cfg.Backend.BaseURL, sess,
		client.WithTimeout(cfg.Backend.Timeout()),
		client.WithLogger(logger),
	)
	return &cli{
		out:           out,
		api:           api,
		conversations: chat.NewConversationStore(store, chat.WithStoreLogger(logger)),
		streamTimeout: cfg.Chat.StreamTimeout(),
		recentLimit:   cfg.Trips.RecentLimit,
		logger:        logger,
	}, nil
}

func printUsage(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(out, "usage: wingquest [--config PATH] <command> [flags] [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-14s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "global flags:")
	fmt.Fprint(out, flagSet.FlagUsages())
}
