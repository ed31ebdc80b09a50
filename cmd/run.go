package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/abhisek/lectio/internal/app"
	"github.com/abhisek/lectio/internal/genex"
	"github.com/abhisek/lectio/internal/llm"
	"github.com/abhisek/lectio/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run [lesson-id]",
	Short: "Start a tutoring session",
	Long:  "Starts an interactive session on the given lesson. Without an argument it lists the available lessons.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		if len(args) == 0 {
			return listLessons(cmd, st)
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
		opts := app.Options{Store: st, Logger: logger}

		// The LLM provider is optional: without one the session runs on
		// authored content and free questions get a deflection.
		if cfg, ok := llm.DiscoverConfig(); ok {
			provider, err := llm.NewProvider(ctx, cfg, logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
				fmt.Fprintln(os.Stderr, "Generative features will be unavailable.")
			} else {
				gcfg := genex.DefaultConfig()
				opts.Generator = genex.NewService(provider, st.Content(), gcfg, logger)
				opts.Questions = genex.NewQuestions(provider, gcfg, logger)
			}
		}

		return app.New(opts).RunSession(ctx, learnerID(cmd), args[0])
	},
}

func listLessons(cmd *cobra.Command, st *store.Store) error {
	lessons, err := st.Content().ListLessons(cmd.Context())
	if err != nil {
		return fmt.Errorf("list lessons: %w", err)
	}
	if len(lessons) == 0 {
		fmt.Println("No lessons in the database yet.")
		return nil
	}
	fmt.Printf("%-24s  %-40s  %-14s  %s\n", "ID", "Title", "Subject", "Grade")
	for _, l := range lessons {
		title := l.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Printf("%-24s  %-40s  %-14s  %d\n", l.ID, title, l.Subject, l.Grade)
	}
	fmt.Printf("\n%d lessons\n", len(lessons))
	return nil
}
