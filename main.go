package main

import (
	"fmt"
	"os"

	"github.com/beni69/csengo/cmd"
	"github.com/beni69/csengo/internal/conf"
	"github.com/beni69/csengo/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Init(settings.Main.LogLevel)

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		os.Exit(1)
	}
}
