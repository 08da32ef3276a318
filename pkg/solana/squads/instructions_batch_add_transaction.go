package squads

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana"
	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var BatchAddTransactionInstructionDiscriminator = instructionDiscriminator("batch_add_transaction")

type BatchAddTransactionInstructionArgs struct {
	EphemeralSigners uint8

	// TransactionMessage is a solana.CompactMessage in its compact encoding
	TransactionMessage []byte
}

type BatchAddTransactionInstructionAccounts struct {
	Multisig    ed25519.PublicKey
	Proposal    ed25519.PublicKey
	Batch       ed25519.PublicKey
	Transaction ed25519.PublicKey
	Member      ed25519.PublicKey
	RentPayer   ed25519.PublicKey
}

func NewBatchAddTransactionInstruction(
	accounts *BatchAddTransactionInstructionAccounts,
	args *BatchAddTransactionInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		discriminatorSize+
			1+ // ephemeral_signers
			vecLengthSize+len(args.TransactionMessage)) // transaction_message

	putDiscriminator(data, BatchAddTransactionInstructionDiscriminator, &offset)
	binary.PutUint8(data[offset:], args.EphemeralSigners, &offset)
	binary.PutBytes32(data[offset:], args.TransactionMessage, &offset)

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
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Batch,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Transaction,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Member,
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

// CompileVaultTransactionMessage compiles instructions to be executed by the
// vault into the message carried by batch_add_transaction. The vault pays, and
// program ids may be loaded from the lookup tables since the multisig program
// invokes them through CPI.
func CompileVaultTransactionMessage(vault ed25519.PublicKey, instructions []solana.Instruction, tables []solana.AddressLookupTable) ([]byte, error) {
	message, err := solana.CompileMessage(vault, instructions, tables, solana.WithLookupResolvablePrograms())
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile vault transaction message")
	}

	encoded, err := message.MarshalCompact()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode vault transaction message")
	}
	return encoded, nil
}

// ParseBatchAddTransactionInstructionArgs decodes the arguments of a
// batch_add_transaction instruction, including its discriminator
func ParseBatchAddTransactionInstructionArgs(data []byte) (*BatchAddTransactionInstructionArgs, error) {
	body, err := checkInstructionDiscriminator(data, BatchAddTransactionInstructionDiscriminator)
	if err != nil {
		return nil, err
	}

	r := binary.NewReader(body)

	var args BatchAddTransactionInstructionArgs
	if args.EphemeralSigners, err = r.ReadUint8(); err != nil {
		return nil, errors.Wrap(err, "ephemeral_signers")
	}
	if args.TransactionMessage, err = readByteVec(r); err != nil {
		return nil, errors.Wrap(err, "transaction_message")
	}
	return &args, nil
}
