package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dm-vev/voxelcore/server/world/biome"
	getter "github.com/hashicorp/go-getter"
)

// convert reads the climate parameter list at src, checks that it resolves
// against the default biome registry and builds into a tree, and writes it zstd
// compressed to out. It returns the amount of entries written.
func convert(ctx context.Context, src, format, out string) (int, error) {
	f := biome.DefaultClimate()
	if src != "" {
		var err error
		if f, err = fetch(ctx, src, format); err != nil {
			return 0, err
		}
	}
	entries, err := f.Resolve(biome.Default())
	if err != nil {
		return 0, err
	}
	if _, err := biome.Build(entries); err != nil {
		return 0, fmt.Errorf("build tree: %w", err)
	}

	file, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	if err := biome.WriteCompressedClimate(file, f); err != nil {
		_ = file.Close()
		return 0, err
	}
	return len(entries), file.Close()
}

// fetch downloads src into a temporary directory with go-getter and reads it
// as a climate parameter list.
func fetch(ctx context.Context, src, format string) (biome.ClimateFile, error) {
	if format == "" {
		format = sourceExt(src)
	}
	format = strings.TrimPrefix(strings.ToLower(format), ".")

	tmp, err := os.MkdirTemp("", "climategen")
	if err != nil {
		return biome.ClimateFile{}, err
	}
	defer os.RemoveAll(tmp)

	pwd, err := os.Getwd()
	if err != nil {
		return biome.ClimateFile{}, err
	}
	dst := filepath.Join(tmp, "climate."+format)
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return biome.ClimateFile{}, fmt.Errorf("download %v: %w", src, err)
	}
	return biome.ReadClimateFile(dst)
}

// sourceExt returns the file extension of src, which may be a path or a URL.
func sourceExt(src string) string {
	if u, err := url.Parse(src); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return path.Ext(u.Path)
	}
	return filepath.Ext(src)
}
