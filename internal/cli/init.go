package cli

import (
	"fmt"
	"os"

	"github.com/lazypower/recall/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config and create the database",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.SchemaVersion()
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}

	fmt.Fprintf(os.Stderr, "recall initialized\n")
	fmt.Fprintf(os.Stderr, "  db: %s (schema v%d)\n", db.Path, version)
	return nil
}
