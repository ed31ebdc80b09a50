package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lectio/internal/store"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Show the learner's skill mastery",
	RunE: func(cmd *cobra.Command, args []string) error {
		minLevel, _ := cmd.Flags().GetInt("min-level")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		rows, err := st.Skills().ListSkills(cmd.Context(), learnerID(cmd))
		if err != nil {
			return fmt.Errorf("list skills: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No skill data yet. Run a session first.")
			return nil
		}

		fmt.Printf("%-16s  %-7s  %5s  %8s  %7s  %6s\n",
			"Skill", "Mastery", "Level", "Attempts", "Correct", "Streak")
		fmt.Println(strings.Repeat("─", 60))

		shown := 0
		for _, r := range rows {
			if r.Level < minLevel {
				continue
			}
			fmt.Printf("%-16s  %6.0f%%  %5d  %8d  %7d  %6d\n",
				r.SkillCode, r.Mastery*100, r.Level, r.Attempts, r.Correct, r.Streak)
			shown++
		}
		fmt.Printf("\n%d skills\n", shown)
		return nil
	},
}

func init() {
	skillsCmd.Flags().Int("min-level", 0, "Only show skills at or above this level")
}
