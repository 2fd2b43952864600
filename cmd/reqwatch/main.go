package main

import (
	"os"

	"github.com/reqwatch/reqwatch/cmd/reqwatch/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
