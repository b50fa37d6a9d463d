// Package main is the entry point for newswatch, which checks a watch-list of
// tickers for fresh news, scores each item with a language model and sends
// alerts to a Telegram chat.
//
// Run once with --once, or leave it running to check on a fixed cadence until
// interrupted.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
