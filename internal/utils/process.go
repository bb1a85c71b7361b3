package utils

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
)

// ListenForProcessInterruptOrKill blocks until it receives an interrupt (Ctrl+C)
// or termination signal (SIGTERM), then returns it. This is typically used to
// keep a program running until the user requests shutdown.
func ListenForProcessInterruptOrKill(logger hclog.Logger) os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("press Ctrl+C to exit")

	sig := <-sigChan // block until signal arrives
	logger.Info("received signal, shutting down", "signal", sig.String())
	return sig
}
