package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/screenwise/internal/ui/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <session>",
	Short: "Show the screening report for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		if end, _ := cmd.Flags().GetBool("end"); end {
			if _, err := rt.service.End(ctx, args[0]); err != nil {
				return fmt.Errorf("end session: %w", err)
			}
		}

		d, err := rt.service.Dashboard(ctx, args[0])
		if err != nil {
			return err
		}
		width, _ := cmd.Flags().GetInt("width")
		fmt.Fprint(cmd.OutOrStdout(), report.Dashboard(d, width))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <user>",
	Short: "List a learner's completed sessions with their risk scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		entries, err := rt.service.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.History(args[0], entries))
		return nil
	},
}

func init() {
	reportCmd.Flags().Bool("end", false, "End the session first if it is still active")
	reportCmd.Flags().Int("width", report.DefaultWidth, "Report width in columns")
}
