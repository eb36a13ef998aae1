package main

import (
	"os"

	"github.com/tracerat/rescuectl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		cli.PrintError(err)
		os.Exit(1)
	}
}
