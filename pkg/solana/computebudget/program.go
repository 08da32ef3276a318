package compute_budget

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/code-payments/vault-governor/pkg/solana"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], computeUnitLimit)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
	)
}

func SetComputeUnitPrice(computeUnitPrice uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = commandSetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], computeUnitPrice)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
	)
}

// Budget returns the instructions setting the compute unit limit and price.
// A zero value leaves the runtime default in place and emits nothing.
func Budget(computeUnitLimit uint32, computeUnitPrice uint64) []solana.Instruction {
	var instructions []solana.Instruction
	if computeUnitLimit > 0 {
		instructions = append(instructions, SetComputeUnitLimit(computeUnitLimit))
	}
	if computeUnitPrice > 0 {
		instructions = append(instructions, SetComputeUnitPrice(computeUnitPrice))
	}
	return instructions
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, errors.New("invalid length")
	}

	if data[0] != commandSetComputeUnitLimit {
		return 0, errors.New("invalid instruction")
	}

	return binary.LittleEndian.Uint32(data[1:]), nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, errors.New("invalid length")
	}

	if data[0] != commandSetComputeUnitPrice {
		return 0, errors.New("invalid instruction")
	}

	return binary.LittleEndian.Uint64(data[1:]), nil
}

// Describe returns a human readable summary of a compute budget instruction
func Describe(program ed25519.PublicKey, data []byte) (string, bool) {
	if !bytes.Equal(program, ProgramKey) || len(data) == 0 {
		return "", false
	}

	switch data[0] {
	case commandSetComputeUnitLimit:
		if limit, err := ParseSetComputeUnitLimitIxnData(data); err == nil {
			return fmt.Sprintf("compute_budget::set_compute_unit_limit(%d)", limit), true
		}
	case commandSetComputeUnitPrice:
		if price, err := ParseSetComputeUnitPriceIxnData(data); err == nil {
			return fmt.Sprintf("compute_budget::set_compute_unit_price(%d)", price), true
		}
	}
	return "compute_budget::unknown", true
}
