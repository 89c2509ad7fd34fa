package main

import (
	"os"

	"github.com/finvault/brokerage/cmd/brokerage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
