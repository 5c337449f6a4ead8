package main

import (
	"fmt"
	"os"

	"docstructgo/cmd/docstructctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
