/*
Quadro renders a single spinning, textured quad. It exists to exercise the
frame-in-flight scheduling in engine/renderer.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/quadro/engine"
	"github.com/spaghettifunk/quadro/engine/config"
)

func main() {
	cfg, err := config.Load("quadro.toml")
	if err != nil {
		panic(err)
	}

	app, err := engine.New(cfg)
	if err != nil {
		panic(err)
	}

	if err := app.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		<-sigCh
		// Flag only: the run loop consumes it and tears down on the main
		// thread, where the window and GPU calls must happen.
		app.RequestShutdown()
	}()

	if err := app.Run(); err != nil {
		os.Exit(1)
	}
}
