package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"shortsengine/internal/config"
	"shortsengine/internal/logging"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shortsengine",
		Short:         "Per-shot motion and caption synthesis for short-form video projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Secrets live in .env during development; absence is fine.
			_ = godotenv.Load()
			logging.Init(verbose)

			var err error
			cfg, err = config.Load(cfgFile)
			return err
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "configuration file (default shortsengine.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newAudioCmd(),
		newEffectsCmd(),
		newAssembleCmd(),
		newRunCmd(),
		newStatusCmd(),
		newEndcardCmd(),
	)
	return root
}
