package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/fantasyos/shmup-server/internal/schema"
)

// Writes the JSON Schema for game description documents, for frontend and
// editor tooling.
func main() {
	out := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	payload, err := json.MarshalIndent(schema.Reflect(), "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal schema: %v", err)
	}
	payload = append(payload, '\n')

	if *out == "" {
		os.Stdout.Write(payload)
		return
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	log.Printf("Wrote schema to %s", *out)
}
