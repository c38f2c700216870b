package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/interfaces"
)

func init() {
	questionsCmd := &cobra.Command{
		Use:   "questions",
		Short: "Print the appointment checklist",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := current.Checklist.State(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}

	var specialty string
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate questions for one specialty, or for all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), current.Checklist, cmd.OutOrStdout(), specialty)
		},
	}
	generateCmd.Flags().StringVarP(&specialty, "specialty", "s", "", "specialty name; empty for all")
	questionsCmd.AddCommand(generateCmd)

	var addTo string
	addCmd := &cobra.Command{
		Use:   "add TEXT",
		Short: "Add a question to a specialty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := current.Checklist.AddQuestion(cmd.Context(), addTo, args[0], domain.SourceUser)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), q)
		},
	}
	addCmd.Flags().StringVarP(&addTo, "specialty", "s", "", "specialty name; empty for the active one")
	questionsCmd.AddCommand(addCmd)

	rootCmd.AddCommand(questionsCmd)
}

func runGenerate(ctx context.Context, svc interfaces.ChecklistServiceInterface, w io.Writer, specialty string) error {
	var (
		n   int
		err error
	)
	if specialty != "" {
		n, err = svc.GenerateForSpecialty(ctx, specialty)
	} else {
		n, err = svc.GenerateAll(ctx)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "added %d questions\n", n)
	return err
}
