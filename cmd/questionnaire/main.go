package main

import (
	"os"

	"github.com/goliatone/go-questionnaire/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
