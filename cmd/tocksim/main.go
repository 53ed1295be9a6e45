// Command tocksim boots a simulated single-board kernel: one process
// slot, three LEDs, and a console capsule whose writes are reported on
// stdout as a byte count. It exists to exercise Board.Run end to end the way the
// teacher's cmd/ublk-mem exercises a real device end to end, with no
// hardware required.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tockcore "github.com/ngreer/tockcore"
	"github.com/ngreer/tockcore/internal/logging"
)

// stdoutSink adapts os.Stdout to capsule.Sink: for each write it prints
// a "[console] N bytes" line, not the written bytes themselves, so
// console activity is distinguishable from tocksim's own log lines.
type stdoutSink struct{}

func (stdoutSink) Write(p []byte) (int, error) {
	return fmt.Printf("[console] %d bytes\n", len(p))
}

func main() {
	var (
		mpuSlots = flag.Int("mpu-slots", 4, "number of MPU regions the simulated chip offers")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := tockcore.DefaultConfig()
	cfg.MPUSlots = *mpuSlots
	cfg.Logger = logger

	board, err := tockcore.NewSimBoard(cfg, stdoutSink{})
	if err != nil {
		logger.Error("failed to build board", "error", err)
		os.Exit(1)
	}

	logger.Info("board loaded", "processes", len(cfg.Processes), "mpu_slots", cfg.MPUSlots)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- board.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
		cancel()
		select {
		case <-runErr:
		case <-time.After(time.Second):
			logger.Info("shutdown timeout, forcing exit")
		}
	case err := <-runErr:
		if err != nil {
			logger.Error("kernel run loop exited with error", "error", err)
			os.Exit(1)
		}
	}

	if proc, ok := board.Process(0); ok {
		logger.Info("final process state", "lifecycle", proc.Lifecycle, "fault_count", proc.FaultCount)
	}
}
