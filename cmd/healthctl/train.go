package main

import (
	"fmt"

	"health-monitor/ml"

	"github.com/spf13/cobra"
)

func newTrainCmd() *cobra.Command {
	var (
		dataPath string
		outDir   string
		opts     = ml.DefaultTrainOptions()
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the recommendation models from a CSV dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := ml.LoadCSV(dataPath)
			if err != nil {
				return err
			}

			artifacts, report, err := ml.Train(ds, opts)
			if err != nil {
				return err
			}
			if err := ml.SaveArtifacts(outDir, artifacts); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trained on %d rows, evaluated on %d\n", report.TrainRows, report.TestRows)
			fmt.Fprintf(out, "KNN Model Accuracy: %.2f\n", report.KNNAccuracy)
			fmt.Fprintf(out, "Random Forest Model Accuracy: %.2f\n", report.RandomForestAccuracy)
			fmt.Fprintf(out, "models saved to %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "health_data.csv", "training dataset (CSV)")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write model artifacts to")
	cmd.Flags().Float64Var(&opts.TestSize, "test-size", opts.TestSize, "fraction of rows held out for evaluation")
	cmd.Flags().Int64Var(&opts.Seed, "seed", opts.Seed, "random seed for the split and the forest")
	cmd.Flags().IntVar(&opts.Neighbors, "neighbors", opts.Neighbors, "k for the nearest-neighbors model")
	cmd.Flags().IntVar(&opts.NumTrees, "trees", opts.NumTrees, "number of trees in the forest")
	return cmd
}
