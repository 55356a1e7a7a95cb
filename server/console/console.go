package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dm-vev/voxelcore/server"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

// ErrUnknownCommand is returned by Execute for a command that does not exist.
var ErrUnknownCommand = errors.New("unknown command")

// Console provides a simple CLI that reads commands from an io.Reader
// (defaulting to os.Stdin) and executes them on the provided server.
type Console struct {
	srv    *server.Server
	log    *slog.Logger
	reader io.Reader
	stop   func()
}

// New returns a Console bound to the provided server. The console reads from
// os.Stdin and writes command output to the supplied logger.
func New(srv *server.Server, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{
		srv:    srv,
		log:    log,
		reader: os.Stdin,
		stop:   func() {},
	}
}

// WithReader sets a custom reader for the console input. It enables testing the
// console without relying on os.Stdin.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// WithStop sets the function called by the stop command.
func (c *Console) WithStop(stop func()) *Console {
	if stop != nil {
		c.stop = stop
	}
	return c
}

// Run starts consuming commands from the console. It blocks until the context
// is cancelled or the underlying reader reaches EOF.
func (c *Console) Run(ctx context.Context) {
	scanner := bufio.NewScanner(c.reader)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				c.log.Error("console input error", "err", err)
			}
			return
		}
		out, err := c.Execute(ctx, scanner.Text())
		if err != nil {
			c.log.Error(err.Error())
			continue
		}
		if out != "" {
			c.log.Info(out)
		}
	}
}

// Execute runs a single command line and returns its output. A leading slash
// is ignored.
func (c *Console) Execute(ctx context.Context, line string) (string, error) {
	args := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(args) == 0 {
		return "", nil
	}
	cmd, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	if len(args)-1 < cmd.args {
		return "", fmt.Errorf("usage: %s %s", args[0], cmd.usage)
	}
	return cmd.run(ctx, c, args[1:])
}

type command struct {
	usage string
	args  int
	run   func(ctx context.Context, c *Console, args []string) (string, error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":        {"", 0, help},
		"status":      {"", 0, status},
		"save":        {"", 0, save},
		"stop":        {"", 0, stop},
		"tick":        {"[count]", 0, tick},
		"load":        {"<x> <z>", 2, chunkCommand(func(c *Console, pos world.ChunkPos) error { return c.srv.World().LoadChunk(pos) })},
		"unload":      {"<x> <z>", 2, chunkCommand(func(c *Console, pos world.ChunkPos) error { return c.srv.World().UnloadChunk(pos) })},
		"forceload":   {"<x> <z>", 2, chunkCommand(func(c *Console, pos world.ChunkPos) error { return c.srv.ForceLoad(pos) })},
		"release":     {"<x> <z>", 2, chunkCommand(func(c *Console, pos world.ChunkPos) error { return c.srv.Release(pos) })},
		"block":       {"<x> <y> <z>", 3, getBlock},
		"setblock":    {"<x> <y> <z> <state>", 4, setBlock},
		"place":       {"<x> <y> <z> <state>", 4, place},
		"break":       {"<x> <y> <z>", 3, posCommand((*world.World).Break)},
		"use":         {"<x> <y> <z>", 3, posCommand((*world.World).Use)},
		"power":       {"<x> <y> <z>", 3, power},
		"propagation": {"[two-ring|turbo]", 0, propagation},
	}
}

func help(context.Context, *Console, []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Commands:")
	for _, name := range []string{"help", "status", "save", "stop", "tick", "load", "unload", "forceload", "release", "block", "setblock", "place", "break", "use", "power", "propagation"} {
		sb.WriteString("\n  " + strings.TrimSpace(name+" "+commands[name].usage))
	}
	return sb.String(), nil
}

func status(_ context.Context, c *Console, _ []string) (string, error) {
	w, m := c.srv.World(), c.srv.Redstone().Metrics()
	return fmt.Sprintf("world %q seed=%d tick=%d tps=%.1f chunks=%d pending_ticks=%d redstone_rounds=%d redstone_dropped=%d",
		w.Name(), w.Seed(), w.CurrentTick(), w.TPS(), len(w.LoadedChunks()), w.PendingTicks(), m.Rounds(), m.Dropped()), nil
}

func save(_ context.Context, c *Console, _ []string) (string, error) {
	if err := c.srv.World().Save(); err != nil {
		return "", fmt.Errorf("save world: %w", err)
	}
	return "Saved the world.", nil
}

func stop(_ context.Context, c *Console, _ []string) (string, error) {
	c.stop()
	return "Stopping the server...", nil
}

func tick(ctx context.Context, c *Console, args []string) (string, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return "", fmt.Errorf("invalid tick count %q", args[0])
		}
		n = v
	}
	for i := 0; i < n; i++ {
		if err := c.srv.World().Tick(ctx); err != nil {
			return "", fmt.Errorf("tick: %w", err)
		}
	}
	return fmt.Sprintf("Ran %d tick(s), now at tick %d.", n, c.srv.World().CurrentTick()), nil
}

func chunkCommand(f func(c *Console, pos world.ChunkPos) error) func(context.Context, *Console, []string) (string, error) {
	return func(_ context.Context, c *Console, args []string) (string, error) {
		x, errX := strconv.ParseInt(args[0], 10, 32)
		z, errZ := strconv.ParseInt(args[1], 10, 32)
		if errX != nil || errZ != nil {
			return "", fmt.Errorf("invalid chunk position %v %v", args[0], args[1])
		}
		pos := world.ChunkPos{int32(x), int32(z)}
		if err := f(c, pos); err != nil {
			return "", err
		}
		return fmt.Sprintf("Done for chunk %v.", pos), nil
	}
}

func posCommand(f func(w *world.World, pos cube.Pos) bool) func(context.Context, *Console, []string) (string, error) {
	return func(_ context.Context, c *Console, args []string) (string, error) {
		pos, err := parsePos(args)
		if err != nil {
			return "", err
		}
		if !f(c.srv.World(), pos) {
			return "Nothing happened.", nil
		}
		return describe(c, pos), nil
	}
}

func getBlock(_ context.Context, c *Console, args []string) (string, error) {
	pos, err := parsePos(args)
	if err != nil {
		return "", err
	}
	return describe(c, pos), nil
}

func setBlock(_ context.Context, c *Console, args []string) (string, error) {
	pos, st, err := parsePlacement(c, args)
	if err != nil {
		return "", err
	}
	c.srv.World().SetBlockState(pos, st, world.NotifyAll)
	return describe(c, pos), nil
}

func place(_ context.Context, c *Console, args []string) (string, error) {
	pos, st, err := parsePlacement(c, args)
	if err != nil {
		return "", err
	}
	if !c.srv.World().Place(pos, st) {
		return "", fmt.Errorf("cannot place %v at %v", args[3], pos)
	}
	return describe(c, pos), nil
}

func power(_ context.Context, c *Console, args []string) (string, error) {
	pos, err := parsePos(args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v receives power %d.", pos, redstone.ReceivedPower(c.srv.World(), pos)), nil
}

func propagation(_ context.Context, _ *Console, args []string) (string, error) {
	if len(args) > 0 {
		p, err := redstone.ParsePropagation(strings.ToLower(args[0]))
		if err != nil {
			return "", err
		}
		redstone.SetPropagation(p)
	}
	return "Redstone propagation: " + redstone.CurrentPropagation().String(), nil
}

func describe(c *Console, pos cube.Pos) string {
	w := c.srv.World()
	return fmt.Sprintf("%v: %v", pos, w.Registry().Encode(w.BlockState(pos)))
}

func parsePos(args []string) (cube.Pos, error) {
	var pos cube.Pos
	for i := range pos {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return pos, fmt.Errorf("invalid block position %v", strings.Join(args[:3], " "))
		}
		pos[i] = v
	}
	return pos, nil
}

func parsePlacement(c *Console, args []string) (cube.Pos, world.StateID, error) {
	pos, err := parsePos(args)
	if err != nil {
		return pos, 0, err
	}
	name, props, err := parseState(args[3])
	if err != nil {
		return pos, 0, err
	}
	st, err := c.srv.World().Registry().State(name, props)
	return pos, st, err
}

// parseState parses a state of the form name[key=value,...]. Names without a
// namespace are placed in the minecraft namespace.
func parseState(s string) (string, map[string]string, error) {
	name, rest, hasProps := strings.Cut(s, "[")
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	if !hasProps {
		return name, nil, nil
	}
	body, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return "", nil, fmt.Errorf("invalid block state %q", s)
	}
	props := make(map[string]string)
	for _, pair := range strings.Split(body, ",") {
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return "", nil, fmt.Errorf("invalid block state %q", s)
		}
		props[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return name, props, nil
}
