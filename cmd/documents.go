package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var plainOutput bool

var handoffCmd = &cobra.Command{
	Use:   "handoff <candidate-id>",
	Short: "Print a candidate's hand-off summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.svc.HandOff(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if plainOutput {
			txt, err := doc.PlainText()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), txt)
			return nil
		}
		md, err := doc.Markdown()
		if err != nil {
			return err
		}
		return printMarkdown(cmd, md)
	},
}

var contractCmd = &cobra.Command{
	Use:   "contract <candidate-id>",
	Short: "Print a candidate's employment contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.svc.Contract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		md, err := doc.Markdown()
		if err != nil {
			return err
		}
		return printMarkdown(cmd, md)
	},
}

func init() {
	handoffCmd.Flags().BoolVar(&plainOutput, "plain", false, "print the plain-text form instead of rendered Markdown")
	contractCmd.Flags().BoolVar(&plainOutput, "plain", false, "print raw Markdown")
	rootCmd.AddCommand(handoffCmd, contractCmd)
}

// printMarkdown renders md for the terminal, or prints it raw with --plain.
func printMarkdown(cmd *cobra.Command, md string) error {
	if plainOutput {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
