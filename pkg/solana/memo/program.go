package memo

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana"
)

// ProgramKey is the address of the memo program.
//
// Current key: Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo
var ProgramKey = ed25519.PublicKey{5, 74, 83, 80, 248, 93, 200, 130, 214, 20, 165, 86, 114, 120, 138, 41, 109, 223, 30, 171, 171, 208, 166, 6, 120, 136, 73, 50, 244, 238, 246, 160}

// Reference: https://github.com/solana-labs/solana-program-library/blob/master/memo/program/src/entrypoint.rs
func Instruction(data string) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		[]byte(data),
	)
}

type DecompiledMemo struct {
	Data []byte
}

// DecompileMemo extracts the memo at the provided instruction index. The
// program must be addressed statically, which is always the case for
// messages compiled without lookup-resolvable programs.
func DecompileMemo(m solana.CompactMessage, index int) (*DecompiledMemo, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if int(i.ProgramIndex) >= len(m.Accounts) {
		return nil, solana.ErrIncorrectProgram
	}

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}

	return &DecompiledMemo{Data: i.Data}, nil
}
