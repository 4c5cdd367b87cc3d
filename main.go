package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/go-gol-engine/controller"
	"github.com/sheikhrachel/go-gol-engine/model"
	"github.com/sheikhrachel/go-gol-engine/utils"
)

func main() {
	// Load configuration - fallback to defaults if file doesn't exist
	config, err := utils.LoadConfig("config.json")
	if err != nil {
		fmt.Printf("Using default configuration (%v)\n", err)
		config = utils.DefaultConfig()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Latest snapshot wins; the renderer never blocks the controller
	updates := make(chan controller.Snapshot, 1)
	sim, err := controller.New(config, controller.WithListener(func(s controller.Snapshot) {
		publishLatest(updates, s)
	}))
	if err != nil {
		fmt.Printf("Failed to start simulation: %v\n", err)
		os.Exit(1)
	}

	renderer := model.NewTerminalRenderer(os.Stdout)
	stats := utils.NewStats()
	displayGameInfo(config)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return renderLoop(ctx, updates, renderer, stats)
	})

	lines := make(chan string)
	go scanLines(bufio.NewScanner(os.Stdin), lines)

	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return errQuit
				}
				if err := applyCommand(sim, line); err != nil {
					if errors.Is(err, errQuit) {
						return err
					}
					fmt.Printf("⚠️  %v\n", err)
				}
			}
		}
	})

	eg.Go(func() error {
		<-ctx.Done()
		sim.Pause()
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, errQuit) {
		fmt.Printf("Simulation stopped with error: %v\n", err)
		os.Exit(1)
	}

	snap := sim.Snapshot()
	fmt.Println("\n🛑 Shutting down gracefully...")
	fmt.Printf("Final stats: %d generations in %.1f seconds\n",
		snap.Generation, stats.Runtime().Seconds())
}
