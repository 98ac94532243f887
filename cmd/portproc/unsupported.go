//go:build !linux && !darwin && !freebsd

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(
		os.Stderr,
		"portproc is only supported on Linux, macOS, and FreeBSD.\n\nIf you are seeing this message, you are attempting to build or run portproc on an unsupported platform (such as Windows).\n\nPlease use Linux, macOS, or FreeBSD to build and run portproc.",
	)
	os.Exit(1)
}
