/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command docrepo reads documents from a configured store.
//
//	docrepo -collection owners -id u1 -populate pet -populate pet.vet
//	docrepo -collection owners -filter age=30 -sort name:desc -limit 10
//	docrepo -collection owners -distinct age -count
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "docrepo: %v\n", err)
		stop()
		os.Exit(1)
	}
}
