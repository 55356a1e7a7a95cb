package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	src := flag.String("src", "", "climate parameter list to convert: a local path or any go-getter URL (empty for the built-in list)")
	format := flag.String("format", "", "format of the source: toml, json or zst (default: taken from the source extension)")
	out := flag.String("o", "climate.zst", "output file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	n, err := convert(ctx, *src, *format, *out)
	if err != nil {
		log.Error("convert climate table", "error", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d entries to %s\n", n, *out)
}
