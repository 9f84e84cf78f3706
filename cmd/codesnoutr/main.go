package main

import (
	"os"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/inbound/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
