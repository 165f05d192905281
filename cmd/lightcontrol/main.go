// Package main is the entry point for the lightcontrol CLI.
//
// Usage:
//
//	lightcontrol [flags] <command> [args]
//
// Commands:
//
//	replay     - Drive the control core from a recorded session
//	lights     - List the lights and groups known to the bridge
//	register   - Create a bridge user (press the link button first)
//	status     - Show the persisted records and bridge reachability
//	records    - List persisted light control records
//	place      - Persist a new record bound to a light or group
//	remove     - Delete a persisted record
package main

import (
	"fmt"
	"os"

	"github.com/spatialhue/lightcontrol/cmd/lightcontrol/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
