// Package main is the entry point for the groupvault CLI binary.
package main

import "os"

func main() {
	os.Exit(Execute())
}
