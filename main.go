package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qrave1/bounty-board/chain"
	"github.com/qrave1/bounty-board/config"
	"github.com/qrave1/bounty-board/contract/bounty"
	"github.com/qrave1/bounty-board/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// openChain открывает базу, поднимает цепочку и деплоит контракт доски
func openChain(ctx context.Context, cfg *config.Config) (*sql.DB, *chain.Chain, error) {
	db, err := repository.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	ch, err := chain.New(
		ctx,
		db,
		chain.WithWallets(cfg.Chain.Wallets),
		chain.WithInitialBalance(cfg.Chain.InitialBalance),
	)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to start chain: %w", err)
	}

	if _, err := ch.Deploy(ctx, bounty.New()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to deploy %s: %w", bounty.Name, err)
	}

	return db, ch, nil
}

// signalled закрывается после SIGINT или SIGTERM
func signalled() <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutting down...")
		close(done)
	}()

	return done
}

func waitForSignal() {
	<-signalled()
}
