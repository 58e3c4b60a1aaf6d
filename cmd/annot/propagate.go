package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func propagateCommand(a *app) *cobra.Command {
	var (
		jobID                  string
		objectID, frame, count int
	)
	cmd := &cobra.Command{
		Use:   "propagate",
		Short: "Copy an object to the following frames as new shapes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			collection, err := a.collection(ctx, jobID)
			if err != nil {
				return err
			}
			object, err := objectByServerID(collection, objectID)
			if err != nil {
				return err
			}
			created, err := collection.Propagate(object.ClientID(), frame, count)
			if err != nil {
				return err
			}
			if len(created) > 0 {
				if err := collection.Save(ctx, a.store, jobID); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "object %d propagated to %d frames\n", objectID, len(created))
			return nil
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Job id")
	cmd.Flags().IntVar(&objectID, "object", 0, "Server id of the object")
	cmd.Flags().IntVar(&frame, "frame", 0, "Frame to copy from")
	cmd.Flags().IntVar(&count, "count", 1, "Number of following frames")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("object")
	return cmd
}
