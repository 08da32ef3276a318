package squads

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana"
)

var BatchExecuteTransactionInstructionDiscriminator = instructionDiscriminator("batch_execute_transaction")

type BatchExecuteTransactionInstructionArgs struct {
	VaultIndex uint8

	// The decoded batch transaction being executed, along with every lookup
	// table its message references
	BatchTransaction    *VaultBatchTransactionAccount
	AddressLookupTables []solana.AddressLookupTable
}

type BatchExecuteTransactionInstructionAccounts struct {
	Multisig    ed25519.PublicKey
	Member      ed25519.PublicKey
	Proposal    ed25519.PublicKey
	Batch       ed25519.PublicKey
	Transaction ed25519.PublicKey
}

func NewBatchExecuteTransactionInstruction(
	accounts *BatchExecuteTransactionInstructionAccounts,
	args *BatchExecuteTransactionInstructionArgs,
) (solana.Instruction, error) {
	var offset int

	data := make([]byte, discriminatorSize)
	putDiscriminator(data, BatchExecuteTransactionInstructionDiscriminator, &offset)

	remaining, err := executeRemainingAccounts(accounts, args)
	if err != nil {
		return solana.Instruction{}, err
	}

	ix := solana.Instruction{
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
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Proposal,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Batch,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Transaction,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
	ix.Accounts = append(ix.Accounts, remaining...)
	return ix, nil
}

// executeRemainingAccounts lists the lookup tables used by the stored message,
// followed by its resolved account space. The vault and ephemeral signers are
// signed for by the program, so they're passed as non-signers.
func executeRemainingAccounts(
	accounts *BatchExecuteTransactionInstructionAccounts,
	args *BatchExecuteTransactionInstructionArgs,
) ([]solana.AccountMeta, error) {
	if args.BatchTransaction == nil {
		return nil, errors.New("batch transaction is required")
	}

	message, err := args.BatchTransaction.Message.ToCompactMessage()
	if err != nil {
		return nil, err
	}

	resolved, err := message.ResolvedAccounts(args.AddressLookupTables)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve batch transaction accounts")
	}

	vault, _, err := GetVaultAddress(&GetVaultAddressArgs{
		Multisig:   accounts.Multisig,
		VaultIndex: args.VaultIndex,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive vault address")
	}

	programSigners := []ed25519.PublicKey{vault}
	for i := range args.BatchTransaction.EphemeralSignerBumps {
		signer, _, err := GetEphemeralSignerAddress(&GetEphemeralSignerAddressArgs{
			Transaction:          accounts.Transaction,
			EphemeralSignerIndex: uint8(i),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive ephemeral signer %d", i)
		}
		programSigners = append(programSigners, signer)
	}

	isProgramSigner := func(key ed25519.PublicKey) bool {
		for _, signer := range programSigners {
			if bytes.Equal(signer, key) {
				return true
			}
		}
		return false
	}

	metas := make([]solana.AccountMeta, 0, len(message.AddressTableLookups)+len(resolved))
	for _, lookup := range message.AddressTableLookups {
		metas = append(metas, solana.NewReadonlyAccountMeta(lookup.PublicKey, false))
	}
	for i, key := range resolved {
		metas = append(metas, solana.AccountMeta{
			PublicKey:  key,
			IsSigner:   message.IsSigner(i) && !isProgramSigner(key),
			IsWritable: message.IsWritable(i),
		})
	}
	return metas, nil
}
