// Command onair-chat sends one prompt through a configured provider and
// prints the normalized completion.
//
// Text is printed as it streams. Tool calls the model asks for are printed
// after the text, one per line. With --json the whole completion is
// printed as JSON instead.
//
// Configuration comes from the same layered config as the library
// (config.yaml, ONAIR_CONFIG, ONAIR_* environment variables); flags
// override the provider and model for one run.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
