package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/screenwise/internal/model"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect learned model artifacts",
}

var modelCheckCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Validate a model artifact and print its shape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		art, err := model.LoadFile(args[0])
		if err != nil {
			return err
		}
		if kind, _ := cmd.Flags().GetString("kind"); kind != "" && model.Kind(kind) != art.Kind {
			return fmt.Errorf("%s is a %q model, want %q", args[0], art.Kind, kind)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Path:      %s\n", args[0])
		fmt.Fprintf(out, "Version:   %s\n", art.FormatVersion)
		fmt.Fprintf(out, "Kind:      %s\n", art.Kind)
		fmt.Fprintf(out, "Input:     %s (%d features)\n", art.Input, art.Input.Size())
		fmt.Fprintf(out, "Scale:     %s\n", art.Scale())
		if art.Description != "" {
			fmt.Fprintf(out, "About:     %s\n", art.Description)
		}
		fmt.Fprintln(out, "Heads:")
		for _, h := range art.Heads {
			if h.Regression() {
				fmt.Fprintf(out, "  %-12s regression\n", h.Name)
				continue
			}
			fmt.Fprintf(out, "  %-12s %s\n", h.Name, strings.Join(h.Classes, ", "))
		}
		fmt.Fprintln(out, "OK")
		return nil
	},
}

func init() {
	modelCheckCmd.Flags().String("kind", "", "Require the artifact kind (selection or risk)")
	modelCmd.AddCommand(modelCheckCmd)
}
