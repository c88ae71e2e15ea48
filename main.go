// Package main is the entry point for the logsieve application.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/zorak1103/logsieve/cmd"
)

func main() {
	// Panic recovery: print the stack trace and exit with code 1
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ PANIC: %v\n", r)
			fmt.Fprintf(os.Stderr, "\nStack trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
