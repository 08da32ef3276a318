package main

import (
	"os"

	"github.com/code-payments/vault-governor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
