// main is the entry point of the ticsgate CLI.
package main

import (
	"errors"
	"os"

	"github.com/huangsam/ticsgate/cmd"
	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/joho/godotenv"
)

func main() {
	// A local .env is optional
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, cmd.ErrQualityGateFailed) {
			os.Exit(1)
		}
		contract.LogFatal("ticsgate failed", err)
	}
}
