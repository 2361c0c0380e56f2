// ABOUTME: Entry point for the schooltrack CLI
// ABOUTME: Command-line client for sign-in, enrollment, and scripted auth

package main

import (
	"fmt"
	"os"

	"github.com/schooltrack/schooltrack-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
