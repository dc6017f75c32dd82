package main

import (
	"os"

	"github.com/inkdesk-dev/inkdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
