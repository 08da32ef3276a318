package squads

import (
	"crypto/ed25519"

	"github.com/code-payments/vault-governor/pkg/solana"
)

var ProposalActivateInstructionDiscriminator = instructionDiscriminator("proposal_activate")

type ProposalActivateInstructionAccounts struct {
	Multisig ed25519.PublicKey
	Member   ed25519.PublicKey
	Proposal ed25519.PublicKey
}

func NewProposalActivateInstruction(
	accounts *ProposalActivateInstructionAccounts,
) solana.Instruction {
	var offset int

	data := make([]byte, discriminatorSize)
	putDiscriminator(data, ProposalActivateInstructionDiscriminator, &offset)

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
