package main

import (
	"github.com/spf13/cobra"
)

func exportCommand(a *app) *cobra.Command {
	var jobID string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the stored annotations of a job as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := a.collection(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), collection.Export())
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Job id")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}
