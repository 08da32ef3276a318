package squads

import (
	"crypto/ed25519"

	"github.com/code-payments/vault-governor/pkg/solana"
	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var BatchCreateInstructionDiscriminator = instructionDiscriminator("batch_create")

type BatchCreateInstructionArgs struct {
	VaultIndex uint8
	Memo       *string
}

type BatchCreateInstructionAccounts struct {
	Multisig  ed25519.PublicKey
	Creator   ed25519.PublicKey
	RentPayer ed25519.PublicKey
	Batch     ed25519.PublicKey
}

func NewBatchCreateInstruction(
	accounts *BatchCreateInstructionAccounts,
	args *BatchCreateInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		discriminatorSize+
			1+ // vault_index
			binary.OptionalStringSize(args.Memo))

	putDiscriminator(data, BatchCreateInstructionDiscriminator, &offset)
	binary.PutUint8(data[offset:], args.VaultIndex, &offset)
	binary.PutOptionalString(data[offset:], args.Memo, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Multisig,
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
				PublicKey:  accounts.Batch,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
