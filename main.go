package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/readsync/internal/cli"
	"github.com/mrlokans/readsync/internal/config"
	"github.com/mrlokans/readsync/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "add-user":
		cmd = cli.NewAddUserCommand()
	case "verify-library":
		cmd = cli.NewVerifyLibraryCommand()
	case "version":
		fmt.Printf("readsync %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve           Start the sync server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  add-user        Create a reader account or reset its password\n")
	fmt.Fprintf(os.Stderr, "  verify-library  Check stored books against the catalog\n")
	fmt.Fprintf(os.Stderr, "  version         Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
