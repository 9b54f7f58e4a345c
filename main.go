// Package main is the entry point for the contagion CLI tool, which measures
// how often cheaters interact with future cheaters in multiplayer matches and
// compares the counts with permutation baselines.
package main

import "github.com/pable/go-cheat-contagion/cmd"

func main() {
	cmd.Execute()
}
