package main

import (
	"fmt"
	"log"
	"os"

	"macrorec/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
