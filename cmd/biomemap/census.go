package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dm-vev/voxelcore/server/world/biome"
	_ "modernc.org/sqlite"
)

const censusSchema = `CREATE TABLE IF NOT EXISTS census (
	seed    INTEGER NOT NULL,
	x       INTEGER NOT NULL,
	z       INTEGER NOT NULL,
	biome   TEXT    NOT NULL,
	samples INTEGER NOT NULL,
	PRIMARY KEY (seed, x, z, biome)
);`

// writeCensus stores the amount of samples per biome of a rendered region in
// the sqlite database at path. Earlier results for the same seed and region
// are replaced.
func writeCensus(path string, seed int64, r region, counts map[*biome.Biome]int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open census: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(censusSchema); err != nil {
		return fmt.Errorf("create census table: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM census WHERE seed = ? AND x = ? AND z = ?`, seed, r.X, r.Z); err != nil {
		return fmt.Errorf("clear census: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO census (seed, x, z, biome, samples) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for b, n := range counts {
		if _, err := stmt.Exec(seed, r.X, r.Z, b.Name, n); err != nil {
			return fmt.Errorf("insert %v: %w", b.Name, err)
		}
	}
	return tx.Commit()
}

// readCensus returns the amount of samples per biome name stored for a seed
// and region.
func readCensus(path string, seed int64, r region) (map[string]int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open census: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT biome, samples FROM census WHERE seed = ? AND x = ? AND z = ?`, seed, r.X, r.Z)
	if err != nil {
		return nil, fmt.Errorf("query census: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}
