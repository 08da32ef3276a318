package cmd

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "governor",
		Short:         "Drive Squads multisig proposals that execute batches of vault transactions",
		Long:          "governor creates, populates, votes on, simulates, executes and inspects Squads v4 proposals whose batches run transactions signed by a multisig vault.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			app.shutdown()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "config.yaml", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&app.dryRun, "dry-run", false, "simulate transactions without broadcasting them")

	rootCmd.AddCommand(
		newMultisigInfoCmd(app),
		newCreateProposalCmd(app),
		newAddInstructionCmd(app),
		newActivateProposalCmd(app),
		newVoteProposalCmd(app, true),
		newVoteProposalCmd(app, false),
		newExecuteProposalCmd(app),
		newSimulateProposalCmd(app),
		newCheckProposalCmd(app),
		newEnsureLookupTableCmd(app),
	)

	return rootCmd
}
