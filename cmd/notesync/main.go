// Command notesync serves one project's notes with optimistic sync and
// undo/redo history over HTTP.
//
// Configuration comes from -config (or CONFIG_PATH, default ./config.yaml)
// and the environment. SYNC_PROJECT_ID is required; DATABASE_DSN is required
// unless SYNC_MODE=offline. Run with -h to list every variable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/notesync-backend/internal/app"
	"github.com/heartmarshall/notesync-backend/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	version := flag.Bool("version", false, "print the build version and exit")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(out)
		config.Usage(out)
	}
	flag.Parse()

	if *version {
		fmt.Println(app.BuildVersion())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, *configPath); err != nil {
		log.Fatalf("notesync: %v", err)
	}
}
