// Package main provides the entry point for M2Sim.
// M2Sim is a coherent multi-level cache hierarchy simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("M2Sim - Coherent Cache Hierarchy Simulator")
	fmt.Println("Built on the Akita simulation framework")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
