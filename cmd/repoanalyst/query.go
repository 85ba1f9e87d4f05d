package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var queryVerbose bool

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask one question about the indexed repository",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.log.Sync()

		question := strings.Join(args, " ")

		if a.router != nil {
			verdict := a.router.ClassifyAndRefine(cmd.Context(), question)
			if !verdict.Relevant {
				fmt.Println(verdict.RejectionMessage)
				return nil
			}
			if verdict.RefinedQuery != question {
				a.log.Debug("query refined", zap.String("refined", verdict.RefinedQuery))
				question = verdict.RefinedQuery
			}
		}

		final := a.session.Execute(cmd.Context(), question)
		fmt.Println(final.Answer)
		if queryVerbose {
			if final.JudgeScore != nil {
				fmt.Printf("\n[judge score: %d/6]\n", *final.JudgeScore)
			}
			if final.Err != "" {
				fmt.Printf("[error: %s]\n", final.Err)
			}
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "print judge score and error details")
}
