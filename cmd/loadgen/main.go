package main

import (
	"os"

	"github.com/alokah-labs/superapp-backend/internal/tools/loadgen"
)

func main() {
	if err := loadgen.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
