// Package server runs a voxelcore world: it ties the block registry, the
// terrain generator, the world provider and the redstone system together and
// keeps the spawn area and force loaded chunks in memory while it runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

// Server implements a voxelcore server. It runs a single world whose
// neighbour updates are processed by a redstone.System. A Server is created
// with Config.New.
type Server struct {
	conf     Config
	world    *world.World
	redstone *redstone.System
	spawn    *world.Loader

	startOnce sync.Once
	startErr  error
	closeOnce sync.Once
	closeErr  error
}

// World returns the world of the Server.
func (srv *Server) World() *world.World {
	return srv.world
}

// Redstone returns the redstone.System that runs the neighbour updates of the
// world.
func (srv *Server) Redstone() *redstone.System {
	return srv.redstone
}

// ForceLoaded returns the list of chunks that are kept loaded. It is nil if
// no list was configured.
func (srv *Server) ForceLoaded() *ChunkList {
	return srv.conf.ForceLoaded
}

// Start loads the spawn area and all force loaded chunks. Calling Start more
// than once returns the result of the first call.
func (srv *Server) Start() error {
	srv.startOnce.Do(func() {
		var errs []error
		if r := srv.conf.SpawnRadius; r >= 0 {
			srv.spawn = world.NewLoader(r, srv.world)
			if err := srv.spawn.Move(srv.world.Spawn()); err != nil {
				errs = append(errs, err)
			}
			if _, err := srv.spawn.Load((2*r + 1) * (2*r + 1)); err != nil {
				errs = append(errs, fmt.Errorf("load spawn area: %w", err))
			}
		}
		for _, pos := range srv.conf.ForceLoaded.Chunks() {
			if err := srv.world.LoadChunk(pos); err != nil {
				errs = append(errs, fmt.Errorf("load chunk %v: %w", pos, err))
			}
		}
		srv.startErr = errors.Join(errs...)
		srv.conf.Log.Info("Server started.", "world", srv.world.Name(), "chunks", len(srv.world.LoadedChunks()))
	})
	return srv.startErr
}

// Run starts the Server and blocks until ctx is cancelled, saving the world
// every Config.SaveInterval. The Server is closed when Run returns.
func (srv *Server) Run(ctx context.Context) error {
	if err := srv.Start(); err != nil {
		srv.conf.Log.Error("start server: " + err.Error())
	}

	var save <-chan time.Time
	if srv.conf.SaveInterval > 0 {
		t := time.NewTicker(srv.conf.SaveInterval)
		defer t.Stop()
		save = t.C
	}
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-save:
			if err := srv.world.Save(); err != nil {
				srv.conf.Log.Error("save world: " + err.Error())
			}
		}
	}
	return srv.Close()
}

// ForceLoad adds pos to the force loaded chunks and loads it.
func (srv *Server) ForceLoad(pos world.ChunkPos) error {
	if _, err := srv.conf.ForceLoaded.Add(pos); err != nil {
		return err
	}
	return srv.world.LoadChunk(pos)
}

// Release removes pos from the force loaded chunks. The chunk is unloaded
// unless it is part of the spawn area.
func (srv *Server) Release(pos world.ChunkPos) error {
	removed, err := srv.conf.ForceLoaded.Remove(pos)
	if err != nil || !removed || srv.inSpawnArea(pos) || !srv.world.ChunkLoaded(pos) {
		return err
	}
	return srv.world.UnloadChunk(pos)
}

func (srv *Server) inSpawnArea(pos world.ChunkPos) bool {
	return srv.spawn != nil && srv.spawn.Chunk(pos)
}

// Close stops the world from ticking, saves and closes it and stops the
// redstone system. Calling Close more than once returns the result of the
// first call.
func (srv *Server) Close() error {
	srv.closeOnce.Do(func() {
		srv.conf.Log.Info("Closing world...")
		err := srv.world.Close()
		if rerr := srv.redstone.Close(); rerr != nil {
			err = errors.Join(err, rerr)
		}
		srv.closeErr = err
	})
	return srv.closeErr
}
