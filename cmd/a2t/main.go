package main

import (
	"fmt"
	"os"

	"audioscribe/cmd/a2t/cmd"
	"audioscribe/internal/config"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cmd.Execute()
}
