// Package main provides the entry point for qr-extrude.
package main

import (
	"fmt"
	"os"

	"qr-extrude/internal/command"
)

func main() {
	if err := command.New().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "qr-extrude: %v\n", err)
		os.Exit(1)
	}
}
