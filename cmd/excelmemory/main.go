package main

import (
	"os"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
