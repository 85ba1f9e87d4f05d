package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"repoanalyst/internal/pipeline"
	"repoanalyst/internal/tui"
)

var noHistory bool

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Start an interactive chat over the indexed repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(!noHistory)
		if err != nil {
			return err
		}
		defer a.log.Sync()

		summary := fmt.Sprintf("%d chunks indexed from %s. Type a question, /help for commands.",
			a.repo.Len(), a.cfg.Repository.Path)
		var port tui.QueryPort = a.session
		if a.router != nil {
			port = &pipeline.RoutedSession{Session: a.session, Router: a.router}
		}
		model := tui.New(port, summary)
		_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	interactiveCmd.Flags().BoolVar(&noHistory, "no-history", false, "disable conversation history for this session")
}
