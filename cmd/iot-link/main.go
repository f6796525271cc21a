// Package main is the entry point for the iot-link CLI.
//
// iot-link provisions headless IoT devices onto a WiFi network and binds
// them to a cloud account.
//
// Commands: login, link, devices, version.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benmeehan/iot-link/cmd/iot-link/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
