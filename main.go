package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/core"
)

func main() {
	configPath := flag.String("config", "lumen.toml", "path to the TOML configuration file")
	flag.Parse()

	// Every failure ends up here.
	if err := run(*configPath); err != nil {
		core.LogFatal("%s", err)
	}
}

func run(configPath string) error {
	config, err := engine.LoadConfig(configPath)
	if err != nil {
		return err
	}

	e, err := engine.New(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("shutdown: %s", err)
		}
	}()

	if err := e.Initialize(); err != nil {
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	// The loop owns the window and the GPU, the signal only asks it to stop.
	go func() {
		sig, ok := <-sigCh
		if ok {
			core.LogInfo("received %s, stopping.", sig)
			e.Stop()
		}
	}()

	return e.Run()
}
