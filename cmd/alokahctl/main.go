package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alokah-labs/superapp-backend/internal/tools/migrate"
	"github.com/alokah-labs/superapp-backend/internal/tools/obscheck"
	"github.com/alokah-labs/superapp-backend/internal/tools/secret"
)

func main() {
	root := &cobra.Command{Use: "alokahctl", Short: "Operational tooling for the superapp backend"}
	root.AddCommand(
		migrate.NewRootCommand(),
		secret.NewRootCommand(),
		obscheck.NewRootCommand(),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
