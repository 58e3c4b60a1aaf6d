package main

import (
	"fmt"

	"github.com/LdDl/annot-go/annot"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func predictCommand(a *app) *cobra.Command {
	var (
		jobID            string
		objectID, frames int
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Extend a rectangle track with keyframes predicted by a motion model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if frames <= 0 {
				return fmt.Errorf("frames must be positive, got %d", frames)
			}
			ctx := cmd.Context()
			collection, err := a.collection(ctx, jobID)
			if err != nil {
				return err
			}
			object, err := objectByServerID(collection, objectID)
			if err != nil {
				return err
			}
			track, ok := object.(*annot.Track)
			if !ok {
				return fmt.Errorf("object %d is not a track", objectID)
			}
			keyframes := track.Keyframes()
			last := keyframes[len(keyframes)-1]
			added := 0
			for frame := last + 1; frame <= last+frames; frame++ {
				state, err := track.Predict(frame)
				if err != nil {
					return errors.Wrapf(err, "predict frame %d", frame)
				}
				saved, err := state.Save()
				if err != nil {
					return errors.Wrapf(err, "save frame %d", frame)
				}
				if !saved.Keyframe {
					// prediction left the image
					break
				}
				added++
			}
			if added > 0 {
				if err := collection.Save(ctx, a.store, jobID); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "track %d got %d predicted keyframes\n", objectID, added)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Job id")
	cmd.Flags().IntVar(&objectID, "object", 0, "Server id of the track")
	cmd.Flags().IntVar(&frames, "frames", 1, "Number of frames to predict after the last keyframe")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("object")
	return cmd
}
