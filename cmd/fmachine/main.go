// Command fmachine drives a bipolar stepper motor carriage from a
// joystick: it wires together the Shared Control Block, the Motion
// Engine, and the Joystick State Integrator (spec.md §2), following
// original_source/src/main.rs's top-level shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ciphergoth/fmachine/internal/config"
	"github.com/ciphergoth/fmachine/internal/hal"
	"github.com/ciphergoth/fmachine/internal/inputdevice"
	"github.com/ciphergoth/fmachine/internal/joystick"
	"github.com/ciphergoth/fmachine/internal/logger"
	"github.com/ciphergoth/fmachine/internal/motion"
	"github.com/ciphergoth/fmachine/internal/scb"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("fmachine", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to config file")
	flags.Bool("report-events", false, "trace every raw input event at debug level")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.LogDir = cfg.LogDir
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	log := logger.Get()

	chip := cfg.GPIOChip
	if chip == "" {
		chip = hal.DetectChip()
	}
	lines, err := hal.OpenGpiocdevLines(chip, cfg.StepPin, cfg.DirPin, cfg.Polarity())
	if err != nil {
		log.Error("open GPIO lines", zap.Error(err))
		return 1
	}
	defer lines.Close()

	src, err := inputdevice.Open(cfg.InputDevice)
	if err != nil {
		log.Error("open input device", zap.Error(err))
		return 1
	}
	defer src.Close()

	block := scb.New()
	block.SetAccel(cfg.MaxAccel)

	status := make(chan motion.StatusMessage, 64)
	engine := motion.NewEngine(lines, block, status, log)

	js, err := joystick.New(cfg, block, src, log, time.Now())
	if err != nil {
		log.Error("create joystick state", zap.Error(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	installSignalHandlers(block, cancel, log)

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- engine.Run()
	}()

	loopErr := joystick.Run(ctx, js, src, status, log)

	block.RequestStop()
	cancel()

	if err := <-engineErr; err != nil {
		log.Error("motion engine stopped with error", zap.Error(err))
		return 1
	}
	if loopErr != nil {
		log.Error("joystick loop stopped with error", zap.Error(loopErr))
		return 1
	}

	log.Info("finished successfully")
	return 0
}

// installSignalHandlers raises stop in the SCB on the first SIGINT or
// SIGTERM; a second delivery of either reverts to the default
// disposition, matching spec.md §6 ("Repeat signal reverts to default").
func installSignalHandlers(block *scb.Block, cancel context.CancelFunc, log *zap.Logger) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, raising stop", zap.String("signal", sig.String()))
		block.RequestStop()
		cancel()
		signal.Stop(sigCh)
		signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	}()
}

