package main

import (
	"os"

	"github.com/Heilo-qaq/ai-stock-advisor/cmd/advisor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
