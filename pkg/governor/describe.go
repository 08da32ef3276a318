package governor

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/vault-governor/pkg/solana"
	address_lookup_table "github.com/code-payments/vault-governor/pkg/solana/addresslookuptable"
	compute_budget "github.com/code-payments/vault-governor/pkg/solana/computebudget"
	"github.com/code-payments/vault-governor/pkg/solana/memo"
	"github.com/code-payments/vault-governor/pkg/solana/squads"
	"github.com/code-payments/vault-governor/pkg/solana/system"
)

const unknownDataPrefixSize = 8

// DescribeInstruction renders a one line summary of an instruction. Programs
// without a known layout are summarized by their id and leading data bytes.
func DescribeInstruction(ix solana.Instruction) string {
	if description, ok := compute_budget.Describe(ix.Program, ix.Data); ok {
		return description
	}

	switch {
	case bytes.Equal(ix.Program, system.ProgramKey[:]):
		if transfer, err := system.DecompileTransfer(ix); err == nil {
			return fmt.Sprintf("system::transfer(%s -> %s, %d)", base58.Encode(transfer.From), base58.Encode(transfer.To), transfer.Lamports)
		}
		if create, err := system.DecompileCreateAccount(ix); err == nil {
			return fmt.Sprintf("system::create_account(%s, %d lamports, %d bytes, owner %s)", base58.Encode(create.Address), create.Lamports, create.Size, base58.Encode(create.Owner))
		}
		return "system::unknown"
	case bytes.Equal(ix.Program, memo.ProgramKey):
		return fmt.Sprintf("memo(%q)", string(ix.Data))
	case bytes.Equal(ix.Program, squads.PROGRAM_ID):
		if name, ok := squads.InstructionName(ix.Data); ok {
			return "squads::" + name
		}
		return "squads::unknown"
	case bytes.Equal(ix.Program, address_lookup_table.ProgramKey):
		return "address_lookup_table"
	}

	prefix := ix.Data
	if len(prefix) > unknownDataPrefixSize {
		prefix = prefix[:unknownDataPrefixSize]
	}
	return fmt.Sprintf("%s::%s (%d accounts, %d bytes)", base58.Encode(ix.Program), hex.EncodeToString(prefix), len(ix.Accounts), len(ix.Data))
}
