package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/lazypower/recall/internal/config"
	"github.com/lazypower/recall/internal/controller"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the memory controller on stdin",
	Long:  "Reads utterances one line at a time and applies them. Say \"bye\" to archive the session, Ctrl-D to quit without ending it.",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
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

	// Opening the chat starts (or resumes) the session.
	res, err := ctrl.Handle("hello")
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	fmt.Println(res.Message)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		res, err := ctrl.Handle(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(res.Message)

		if res.Effect == controller.EffectSessionArchived {
			return nil
		}
	}
	return scanner.Err()
}
