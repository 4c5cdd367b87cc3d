package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-engine/controller"
	"github.com/sheikhrachel/go-gol-engine/model"
	"github.com/sheikhrachel/go-gol-engine/utils"
)

var (
	errQuit           = errors.New("quit requested")
	errUnknownCommand = errors.New("unknown command")
	errBadArguments   = errors.New("bad arguments")
)

// maxStepCount is the largest n accepted by "step n"
const maxStepCount = 1000

const usage = "commands: play | pause | step [n] | reset | random | speed <ms> | toggle <row> <col> | quit"

// commands is the subset of the controller the command loop drives
type commands interface {
	Step()
	Play()
	Pause()
	Reset()
	Randomize()
	Toggle(row, col int) error
	SetSpeed(ms int) int
}

// displayGameInfo shows the initial game information
func displayGameInfo(config utils.Config) {
	fmt.Printf("Grid: %dx%d | Interval: %dms (range %d-%dms) | Random fill: %.2f\n",
		config.Rows, config.Cols, config.ClampInterval(config.InitialIntervalMillis),
		config.MinIntervalMillis, config.MaxIntervalMillis, config.RandomFillProbability)
	fmt.Println(usage)
	fmt.Println("Press Ctrl+C to exit gracefully")
	fmt.Println()
}

// applyCommand parses one input line and issues the matching controller command
func applyCommand(sim commands, line string) error {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil
	}

	args := fields[1:]
	switch fields[0] {
	case "play", "p":
		sim.Play()
	case "pause", "s":
		sim.Pause()
	case "step", "n":
		count := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > maxStepCount {
				return errors.Wrapf(errBadArguments, "[applyCommand] step count %q", args[0])
			}
			count = n
		}
		for range count {
			sim.Step()
		}
	case "reset", "r":
		sim.Reset()
	case "random", "x":
		sim.Randomize()
	case "speed":
		if len(args) != 1 {
			return errors.Wrap(errBadArguments, "[applyCommand] speed needs <ms>")
		}
		ms, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Wrapf(errBadArguments, "[applyCommand] speed %q", args[0])
		}
		sim.SetSpeed(ms)
	case "toggle", "t":
		if len(args) != 2 {
			return errors.Wrap(errBadArguments, "[applyCommand] toggle needs <row> <col>")
		}
		row, errRow := strconv.Atoi(args[0])
		col, errCol := strconv.Atoi(args[1])
		if errRow != nil || errCol != nil {
			return errors.Wrapf(errBadArguments, "[applyCommand] toggle %q %q", args[0], args[1])
		}
		if err := sim.Toggle(row, col); err != nil {
			return errors.Wrap(err, "[applyCommand]")
		}
	case "quit", "q", "exit":
		return errQuit
	default:
		return errors.Wrapf(errUnknownCommand, "[applyCommand] %q (%s)", fields[0], usage)
	}
	return nil
}

// publishLatest replaces any unread snapshot with s without blocking
func publishLatest(ch chan controller.Snapshot, s controller.Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// scanLines forwards input lines until the scanner is exhausted
func scanLines(scanner *bufio.Scanner, out chan<- string) {
	defer close(out)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// renderLoop redraws the board for every published snapshot
func renderLoop(
	ctx context.Context,
	updates <-chan controller.Snapshot,
	renderer *model.TerminalRenderer,
	stats *utils.Stats,
) error {
	var (
		lastFrameTime = time.Now()
		lastSeq       uint64
		history       boardHistory
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-updates:
			if snap.Seq <= lastSeq {
				continue
			}
			lastSeq = snap.Seq

			status := updateGameState(snap, lastFrameTime, stats, &history)
			lastFrameTime = time.Now()

			if err := renderer.Clear(); err != nil {
				fmt.Println("Error clearing terminal:", err)
			}
			displayGameStatus(snap, status, stats)
			if err := renderer.Display(snap.Grid); err != nil {
				return errors.Wrap(err, "[renderLoop]")
			}
			fmt.Println(usage)
		}
	}
}

// boardHistory feeds stagnation detection with consecutive generations only
type boardHistory struct {
	seen       bool
	generation int
	hash       string
	stagnant   bool
}

// observe records the board in snap and reports whether it is stagnant.
// Snapshots that leave the board untouched (play, pause, speed) keep the
// previous verdict. Anything but a single step forward (edits, resets,
// skipped frames) restarts the history.
func (h *boardHistory) observe(snap controller.Snapshot, stats *utils.Stats) bool {
	hash := snap.Grid.Hash()
	if h.seen && snap.Generation == h.generation && hash == h.hash {
		return h.stagnant
	}
	if !h.seen || snap.Generation != h.generation+1 {
		stats.ResetHistory()
	}
	h.seen = true
	h.generation = snap.Generation
	h.hash = hash
	h.stagnant = stats.Observe(hash)
	return h.stagnant
}

// updateGameState updates the stats and returns a status label
func updateGameState(
	snap controller.Snapshot,
	lastFrameTime time.Time,
	stats *utils.Stats,
	history *boardHistory,
) string {
	isStagnant := history.observe(snap, stats)

	livingCells := snap.Grid.CountLivingCells()
	stats.Update(snap.Generation, livingCells, time.Since(lastFrameTime))

	switch {
	case livingCells == 0:
		return "Extinct"
	case isStagnant:
		return "Stagnant"
	default:
		return "Active"
	}
}

// displayGameStatus shows the current game status
func displayGameStatus(snap controller.Snapshot, status string, stats *utils.Stats) {
	mode := "Paused"
	if snap.Playing {
		mode = "Playing"
	}
	cells := snap.Grid.Rows() * snap.Grid.Cols()
	density := float64(stats.ActiveCells) / float64(cells) * 100

	fmt.Printf("Gen: %d | %s @ %dms | Living: %d | Density: %.1f%% | Status: %s\n",
		snap.Generation, mode, snap.IntervalMillis, stats.ActiveCells, density, status)
	fmt.Printf("Performance: %.1f gen/sec | Avg Pop: %.1f | Runtime: %.1fs\n",
		stats.GenerationsPerSecond, stats.AveragePopulation, stats.Runtime().Seconds())
	fmt.Println()
}
