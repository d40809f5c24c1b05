// Package main is the entry point for SportGuide.
package main

import (
	"log"
	"os"

	"sportguide-go/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	defer application.Shutdown()

	if err := application.Run(); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}
