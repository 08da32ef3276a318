package cmd

import (
	"context"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
)

const (
	proposalIndexFlag     = "proposal-index"
	instructionsCountFlag = "instructions-count"
)

func newMultisigInfoCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "multisig-info",
		Short: "Show the multisig, its vault and the next proposal index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context) error {
				ms, err := app.governor.GetMultisig(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "multisig: %s\n", base58.Encode(app.governor.Multisig()))
				fmt.Fprintf(out, "vault: %s\n", base58.Encode(app.governor.Vault()))
				fmt.Fprintf(out, "member: %s\n", base58.Encode(app.governor.Member()))
				fmt.Fprintf(out, "threshold: %d/%d\n", ms.Threshold, len(ms.Members))
				fmt.Fprintf(out, "time lock: %ds\n", ms.TimeLock)
				fmt.Fprintf(out, "next proposal: %d\n", ms.NextTransactionIndex())
				for _, member := range ms.Members {
					fmt.Fprintf(out, "  %s (%s)\n", base58.Encode(member.Key), member.Permissions)
				}
				return nil
			})
		},
	}
}

func newCreateProposalCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-proposal",
		Short: "Create a draft proposal with an empty batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context) error {
				index, sig, err := app.governor.CreateProposal(ctx)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created proposal %d: %s\n", index, sig)
				return err
			})
		},
	}
}

func newActivateProposalCmd(app *app) *cobra.Command {
	var index uint64

	cmd := &cobra.Command{
		Use:   "activate-proposal",
		Short: "Activate a draft proposal so members can vote on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context) error {
				sig, err := app.governor.ActivateProposal(ctx, index)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "activated proposal %d: %s\n", index, sig)
				return err
			})
		},
	}

	addProposalIndexFlag(cmd, &index)
	return cmd
}

func newVoteProposalCmd(app *app, approve bool) *cobra.Command {
	var index uint64

	use, short, verb := "approve-proposal", "Approve an active proposal", "approved"
	if !approve {
		use, short, verb = "reject-proposal", "Reject an active proposal", "rejected"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context) error {
				vote := app.governor.ApproveProposal
				if !approve {
					vote = app.governor.RejectProposal
				}

				sig, err := vote(ctx, index)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s proposal %d: %s\n", verb, index, sig)
				return err
			})
		},
	}

	addProposalIndexFlag(cmd, &index)
	return cmd
}

func newExecuteProposalCmd(app *app) *cobra.Command {
	var index uint64
	var count int

	cmd := &cobra.Command{
		Use:   "execute-proposal",
		Short: "Execute pending batch transactions of a proposal",
		Long:  "Execute pending batch transactions of an approved proposal in a single transaction. An active proposal is approved in the same transaction when the signer's vote reaches the threshold.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context) error {
				sig, err := app.governor.ExecuteProposal(ctx, index, count)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "executed proposal %d: %s\n", index, sig)
				return err
			})
		},
	}

	addProposalIndexFlag(cmd, &index)
	cmd.Flags().IntVar(&count, instructionsCountFlag, 0, "number of pending batch transactions to execute, 0 for all")
	return cmd
}

func newSimulateProposalCmd(app *app) *cobra.Command {
	var index uint64
	var count int

	cmd := &cobra.Command{
		Use:   "simulate-proposal",
		Short: "Simulate voting through and executing a proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context) error {
				res, err := app.governor.SimulateProposal(ctx, index, count)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "simulated proposal %d: %d compute units\n", index, res.UnitsConsumed)
				for _, line := range res.Logs {
					fmt.Fprintf(out, "  %s\n", line)
				}
				return nil
			})
		},
	}

	addProposalIndexFlag(cmd, &index)
	cmd.Flags().IntVar(&count, instructionsCountFlag, 0, "number of pending batch transactions to execute, 0 for all")
	return cmd
}

func newCheckProposalCmd(app *app) *cobra.Command {
	var index uint64

	cmd := &cobra.Command{
		Use:   "check-proposal",
		Short: "Show a proposal, its votes and the decoded transactions of its batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context) error {
				report, err := app.governor.CheckProposal(ctx, index)
				if err != nil {
					return err
				}

				_, err = fmt.Fprint(cmd.OutOrStdout(), report.String())
				return err
			})
		},
	}

	addProposalIndexFlag(cmd, &index)
	return cmd
}

func addProposalIndexFlag(cmd *cobra.Command, index *uint64) {
	cmd.Flags().Uint64Var(index, proposalIndexFlag, 0, "transaction index of the proposal")
	_ = cmd.MarkFlagRequired(proposalIndexFlag)
}
