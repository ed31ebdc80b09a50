package cmd

import (
	"github.com/abhisek/lectio/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lectio",
	Short: "Adaptive one-on-one lesson tutor",
	Long:  "Lectio — terminal tutor that walks a learner through a lesson: warmup, pretest, chunked theory, guided practice and a final test, adapting as it goes.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LECTIO_DB env var)")
	rootCmd.PersistentFlags().String("learner", "default", "Learner profile name")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then LECTIO_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func learnerID(cmd *cobra.Command) string {
	l, _ := cmd.Flags().GetString("learner")
	if l == "" {
		l = "default"
	}
	return l
}
