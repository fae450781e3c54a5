// Package main provides the pilot command line: a browser under agent control,
// driven by YAML scripts or by XML tool calls read from stdin.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/pilot/pkg/logging"
)

const version = "0.1.0"

func main() {
	os.Exit(execute())
}

func execute() int {
	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.shutdown()
	_ = logging.Shutdown()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
