package squads

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/vault-governor/pkg/solana"
)

var (
	MultisigPrefix         = []byte("multisig")
	VaultPrefix            = []byte("vault")
	TransactionPrefix      = []byte("transaction")
	ProposalPrefix         = []byte("proposal")
	BatchTransactionPrefix = []byte("batch_transaction")
	EphemeralSignerPrefix  = []byte("ephemeral_signer")
)

type GetMultisigAddressArgs struct {
	CreateKey ed25519.PublicKey
}

func GetMultisigAddress(args *GetMultisigAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		MultisigPrefix,
		MultisigPrefix,
		args.CreateKey,
	)
}

type GetVaultAddressArgs struct {
	Multisig   ed25519.PublicKey
	VaultIndex uint8
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		MultisigPrefix,
		args.Multisig,
		VaultPrefix,
		[]byte{args.VaultIndex},
	)
}

// GetTransactionAddressArgs addresses a vault transaction, config transaction
// or batch. All three share the multisig's transaction index space.
type GetTransactionAddressArgs struct {
	Multisig         ed25519.PublicKey
	TransactionIndex uint64
}

func GetTransactionAddress(args *GetTransactionAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		MultisigPrefix,
		args.Multisig,
		TransactionPrefix,
		uint64Seed(args.TransactionIndex),
	)
}

type GetProposalAddressArgs struct {
	Multisig         ed25519.PublicKey
	TransactionIndex uint64
}

func GetProposalAddress(args *GetProposalAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		MultisigPrefix,
		args.Multisig,
		TransactionPrefix,
		uint64Seed(args.TransactionIndex),
		ProposalPrefix,
	)
}

// GetBatchTransactionAddressArgs addresses a transaction within a batch.
// Transaction indexes within a batch start at 1.
type GetBatchTransactionAddressArgs struct {
	Multisig         ed25519.PublicKey
	BatchIndex       uint64
	TransactionIndex uint32
}

func GetBatchTransactionAddress(args *GetBatchTransactionAddressArgs) (ed25519.PublicKey, uint8, error) {
	transactionIndex := make([]byte, 4)
	binary.LittleEndian.PutUint32(transactionIndex, args.TransactionIndex)

	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		MultisigPrefix,
		args.Multisig,
		TransactionPrefix,
		uint64Seed(args.BatchIndex),
		BatchTransactionPrefix,
		transactionIndex,
	)
}

type GetEphemeralSignerAddressArgs struct {
	Transaction          ed25519.PublicKey
	EphemeralSignerIndex uint8
}

func GetEphemeralSignerAddress(args *GetEphemeralSignerAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		MultisigPrefix,
		args.Transaction,
		EphemeralSignerPrefix,
		[]byte{args.EphemeralSignerIndex},
	)
}

func uint64Seed(v uint64) []byte {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, v)
	return seed
}
