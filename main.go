package main

import (
	"log"

	"forex-signal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("forex-signal: %v", err)
	}
}
