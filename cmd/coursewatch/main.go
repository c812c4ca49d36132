package main

import (
	"os"

	"github.com/coursewatch/coursewatch/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
