package main

import (
	"fmt"

	"github.com/LdDl/annot-go/annot"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func importCommand(a *app) *cobra.Command {
	var jobID, file, labelsFile string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate annotations from a JSON file and store them as the job payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if labelsFile != "" {
				var labels []*annot.Label
				if err := readJSON(labelsFile, &labels); err != nil {
					return err
				}
				if err := a.store.PutLabels(ctx, jobID, labels); err != nil {
					return err
				}
			}
			var raw annot.RawAnnotations
			if err := readJSON(file, &raw); err != nil {
				return err
			}
			collection, err := a.collection(ctx, jobID)
			if err != nil {
				return err
			}
			if err := collection.Import(raw); err != nil {
				return errors.Wrapf(err, "import %s", file)
			}
			if err := collection.Save(ctx, a.store, jobID); err != nil {
				return err
			}
			exported := collection.Export()
			fmt.Fprintf(cmd.OutOrStdout(), "job %s version %d: %d tags, %d shapes, %d tracks\n",
				jobID, collection.Version(), len(exported.Tags), len(exported.Shapes), len(exported.Tracks))
			return nil
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Job id")
	cmd.Flags().StringVar(&file, "file", "", "Annotations JSON file")
	cmd.Flags().StringVar(&labelsFile, "labels", "", "Labels JSON file, replaces labels of the job")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
