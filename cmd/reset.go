package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lectio/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase the learner's progress",
	Long:  "Removes the learner's skill state, review schedules, session history and lesson progress. Lesson content is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner := learnerID(cmd)
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Printf("Erase all progress for learner %q? [y/N] ", learner)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if l := strings.ToLower(strings.TrimSpace(line)); l != "y" && l != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		if err := st.ResetLearner(cmd.Context(), learner); err != nil {
			return err
		}
		fmt.Printf("Progress for learner %q erased.\n", learner)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}
