package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ironsheep/image-filters-mcp/internal/filters"
	"github.com/ironsheep/image-filters-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const logLevelEnv = "IMAGE_FILTERS_LOG_LEVEL"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			printVersion(os.Stdout)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q\n\n", os.Args[1])
			printUsage(os.Stderr)
			os.Exit(2)
		}
	}

	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv(logLevelEnv) == "debug"
	if debug {
		log.Printf("image-filters-mcp %s (built %s, commit %s), filters: %s",
			Version, BuildTime, GitCommit, strings.Join(filters.Names(), ", "))
	}

	srv := server.New()
	srv.SetDebug(debug)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "image-filters-mcp %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "image-filters-mcp - MCP server that applies image filters to local files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: image-filters-mcp [--version | --help]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tools: image_load, image_dimensions, image_list_filters, image_filter")
	fmt.Fprintf(w, "Filters: %s\n", strings.Join(filters.Names(), ", "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Log each tool call and its duration to stderr\n", logLevelEnv)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Requests are read from stdin and responses written to stdout, one JSON-RPC")
	fmt.Fprintln(w, "message per line. Register the binary as a stdio server in your MCP client.")
}
