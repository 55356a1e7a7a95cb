package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dm-vev/voxelcore/server/world/biome"
)

func TestConvertDefault(t *testing.T) {
	out := filepath.Join(t.TempDir(), "climate.zst")
	n, err := convert(context.Background(), "", "", out)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if n != len(biome.DefaultClimate().Entries) {
		t.Fatalf("expected %d entries, got %d", len(biome.DefaultClimate().Entries), n)
	}
	f, err := biome.ReadClimateFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(f.Entries) != n {
		t.Fatalf("expected %d entries in output, got %d", n, len(f.Entries))
	}
}

func TestConvertLocalJSON(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "table.json")
	data, err := json.Marshal(biome.DefaultClimate())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(src, data, 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	out := filepath.Join(dir, "out.zst")
	if _, err := convert(context.Background(), src, "", out); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := biome.TreeFromFile(out); err != nil {
		t.Fatalf("expected output to build a tree: %v", err)
	}
}

func TestConvertRejectsInvalidTable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "table.json")
	if err := os.WriteFile(src, []byte(`{"entry": [{"biome": "minecraft:plains"}]}`), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if _, err := convert(context.Background(), src, "", filepath.Join(dir, "out.zst")); err == nil {
		t.Fatalf("expected invalid table to be rejected")
	}
}

func TestSourceExt(t *testing.T) {
	for src, want := range map[string]string{
		"climate.toml":                          ".toml",
		"/tmp/x/climate.json":                   ".json",
		"https://example.com/c/climate.zst?v=2": ".zst",
	} {
		if got := sourceExt(src); got != want {
			t.Errorf("%v: expected %v, got %v", src, want, got)
		}
	}
}
