package squads

import (
	"crypto/ed25519"

	"github.com/code-payments/vault-governor/pkg/solana"
	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var ProposalCreateInstructionDiscriminator = instructionDiscriminator("proposal_create")

const (
	ProposalCreateInstructionArgsSize = (8 + // transaction_index
		1) // draft
)

type ProposalCreateInstructionArgs struct {
	TransactionIndex uint64
	Draft            bool
}

type ProposalCreateInstructionAccounts struct {
	Multisig  ed25519.PublicKey
	Proposal  ed25519.PublicKey
	Creator   ed25519.PublicKey
	RentPayer ed25519.PublicKey
}

func NewProposalCreateInstruction(
	accounts *ProposalCreateInstructionAccounts,
	args *ProposalCreateInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, discriminatorSize+ProposalCreateInstructionArgsSize)

	putDiscriminator(data, ProposalCreateInstructionDiscriminator, &offset)
	binary.PutUint64(data[offset:], args.TransactionIndex, &offset)
	binary.PutBool(data[offset:], args.Draft, &offset)

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
				PublicKey:  accounts.Proposal,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Creator,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.RentPayer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
