package squads

import (
	"crypto/ed25519"

	"github.com/code-payments/vault-governor/pkg/solana"
	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var (
	ProposalApproveInstructionDiscriminator = instructionDiscriminator("proposal_approve")
	ProposalRejectInstructionDiscriminator  = instructionDiscriminator("proposal_reject")
)

type ProposalVoteInstructionArgs struct {
	Memo *string
}

type ProposalVoteInstructionAccounts struct {
	Multisig ed25519.PublicKey
	Member   ed25519.PublicKey
	Proposal ed25519.PublicKey
}

func NewProposalApproveInstruction(
	accounts *ProposalVoteInstructionAccounts,
	args *ProposalVoteInstructionArgs,
) solana.Instruction {
	return newProposalVoteInstruction(ProposalApproveInstructionDiscriminator, accounts, args)
}

func NewProposalRejectInstruction(
	accounts *ProposalVoteInstructionAccounts,
	args *ProposalVoteInstructionArgs,
) solana.Instruction {
	return newProposalVoteInstruction(ProposalRejectInstructionDiscriminator, accounts, args)
}

func newProposalVoteInstruction(
	discriminator []byte,
	accounts *ProposalVoteInstructionAccounts,
	args *ProposalVoteInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, discriminatorSize+binary.OptionalStringSize(args.Memo))

	putDiscriminator(data, discriminator, &offset)
	binary.PutOptionalString(data[offset:], args.Memo, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Multisig,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Member,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Proposal,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}
