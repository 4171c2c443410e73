package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(exitCode(newRootCommand().Execute()))
}

// exitCode maps a command error to the process exit status. An unhealthy
// probe exits 2 without a message since probe already printed its verdict.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUnhealthy):
		return 2
	case errors.Is(err, context.Canceled):
		return 1
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}
