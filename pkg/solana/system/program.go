package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana"
)

// 11111111111111111111111111111111
var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = iota
	// nolint:varcheck,deadcode,unused
	commandAssign
	commandTransfer
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	data := make([]byte, 4+2*8+32)
	binary.LittleEndian.PutUint32(data, commandCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(i solana.Instruction) (*DecompiledCreateAccount, error) {
	if err := checkCommand(i, commandCreateAccount); err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 52 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledCreateAccount{
		Funder:  i.Accounts[0].PublicKey,
		Address: i.Accounts[1].PublicKey,
	}
	v.Lamports = binary.LittleEndian.Uint64(i.Data[4:])
	v.Size = binary.LittleEndian.Uint64(i.Data[4+8:])
	v.Owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(v.Owner, i.Data[4+2*8:])

	return v, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L283-L290
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data, commandTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(i solana.Instruction) (*DecompiledTransfer, error) {
	if err := checkCommand(i, commandTransfer); err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 12 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledTransfer{
		From:     i.Accounts[0].PublicKey,
		To:       i.Accounts[1].PublicKey,
		Lamports: binary.LittleEndian.Uint64(i.Data[4:]),
	}, nil
}

func checkCommand(i solana.Instruction, command uint32) error {
	if !bytes.Equal(i.Program, ProgramKey[:]) {
		return solana.ErrIncorrectProgram
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], command)
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return solana.ErrIncorrectInstruction
	}
	return nil
}
