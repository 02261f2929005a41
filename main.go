/*
Spawns a batch of mesh instances over a number of ticks and writes the
resulting segments, plus a preview, to the output directory.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/core"
)

func main() {
	configPath := flag.String("config", "", "path to a .toml or .yaml config file")
	watch := flag.Bool("watch", false, "keep running and respawn when the config file changes")
	out := flag.String("out", "", "output directory, overrides the config")
	logLevel := flag.String("log-level", "", "debug, info, warn or error, overrides the config")
	flag.Parse()

	config := engine.DefaultApplicationConfig()
	if *configPath != "" {
		c, err := engine.LoadConfig(*configPath)
		if err != nil {
			core.LogFatal("failed to load config: %s", err.Error())
		}
		config = c
	}
	if *watch {
		config.Application.Watch = true
	}
	if *out != "" {
		config.Output.Dir = *out
	}
	if *logLevel != "" {
		config.Application.LogLevel = *logLevel
	}

	e, err := engine.New(config, *configPath)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = e.Shutdown()
	}()

	// run engine
	if err := e.Run(context.Background()); err != nil {
		core.LogFatal(err.Error())
	}
}
