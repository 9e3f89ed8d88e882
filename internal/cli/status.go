package cli

import (
	"fmt"

	"github.com/lazypower/recall/internal/config"
	"github.com/lazypower/recall/internal/controller"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current project digest",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctrl := controller.New(db, nil)
	digest, err := ctrl.BuildDigest()
	if err != nil {
		return err
	}

	fmt.Println(digest.Render())
	return nil
}
