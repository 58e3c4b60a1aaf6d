package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func dumpCommand(a *app) *cobra.Command {
	var (
		jobID    string
		from, to int
	)
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print per-frame shapes of a frame range with tracks interpolated",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to < from {
				return fmt.Errorf("frame range %d..%d is empty", from, to)
			}
			collection, err := a.collection(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			shapes, err := collection.Interpolate(from, to)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), shapes)
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Job id")
	cmd.Flags().IntVar(&from, "from", 0, "First frame")
	cmd.Flags().IntVar(&to, "to", 0, "Last frame, inclusive")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}
