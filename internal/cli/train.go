package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"ThreatMonitor/internal/infrastructure/ml"
)

func newTrainCommand(opts *rootOptions) *cobra.Command {
	var dataPath, outPath string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the statistical classifier from labeled data",
		Long: `Read {"data": [{"text": ..., "label": ...}]}, hold out a stratified 20%
for evaluation, fit the TF-IDF + logistic regression model on the rest and
write the artifact consumed by the "model" strategy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadConfig()
			if dataPath == "" {
				dataPath = cfg.Model.TrainingDataPath
			}
			if outPath == "" {
				outPath = cfg.Model.ArtifactPath
			}

			result, err := ml.TrainFromFile(dataPath, outPath)
			if err != nil {
				return err
			}

			labels := make([]string, 0, len(result.Labels))
			for label := range result.Labels {
				labels = append(labels, label)
			}
			sort.Strings(labels)

			printf(cmd, "Training data: %s\n", dataPath)
			for _, label := range labels {
				printf(cmd, "  %s: %d\n", label, result.Labels[label])
			}
			printf(cmd, "Split: %d train / %d test\n\n", result.TrainSize, result.TestSize)
			printf(cmd, "%s\n", result.Evaluation)
			printf(cmd, "Model saved to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "labeled training data (default: model.trainingDataPath)")
	cmd.Flags().StringVar(&outPath, "out", "", "model artifact path (default: model.artifactPath)")
	return cmd
}
