package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dm-vev/voxelcore/server"
	"github.com/dm-vev/voxelcore/server/console"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the server configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	noConsole := flag.Bool("no-console", false, "do not read commands from stdin")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	uc, err := server.LoadUserConfig(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	conf, err := uc.Config(log)
	if err != nil {
		log.Error("convert config", "error", err)
		os.Exit(1)
	}
	srv, err := conf.New()
	if err != nil {
		log.Error("create server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*noConsole {
		go console.New(srv, log.With("src", "console")).WithStop(cancel).Run(ctx)
	}
	if err := srv.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
