// Command issue-token prints a bearer token for an actor, for local
// development and scripted clients.
//
// Usage:
//
//	issue-token --actor=<uuid> [--project=<uuid>]
//
// Requires AUTH_JWT_SECRET (and the rest of the service configuration).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/auth"
	"github.com/heartmarshall/notesync-backend/internal/config"
)

func main() {
	actor := flag.String("actor", "", "actor uuid (token subject)")
	project := flag.String("project", "", "restrict the token to one project")
	flag.Parse()

	actorID, err := uuid.Parse(*actor)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: issue-token --actor=<uuid> [--project=<uuid>]")
		os.Exit(1)
	}
	projectID := uuid.Nil
	if *project != "" {
		if projectID, err = uuid.Parse(*project); err != nil {
			log.Fatalf("invalid project id: %v", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !cfg.Auth.Enabled() {
		log.Fatal("AUTH_JWT_SECRET is not set")
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL).Issue(actorID, projectID)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println(token)
}
