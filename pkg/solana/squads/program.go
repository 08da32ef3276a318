package squads

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("SQDS4ep65T869zMMBKyuUq6aD6EgTu8psMjkvj52pCf")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
)

const (
	discriminatorSize = 8
)

// Anchor prefixes account data with sha256("account:<Name>")[:8] and
// instruction data with sha256("global:<name>")[:8]
func accountDiscriminator(name string) []byte {
	return anchorDiscriminator("account:" + name)
}

func instructionDiscriminator(name string) []byte {
	return anchorDiscriminator("global:" + name)
}

func anchorDiscriminator(preimage string) []byte {
	h := sha256.Sum256([]byte(preimage))
	return append([]byte{}, h[:discriminatorSize]...)
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}

var instructionNames = map[string]string{
	string(BatchCreateInstructionDiscriminator):             "batch_create",
	string(BatchAddTransactionInstructionDiscriminator):     "batch_add_transaction",
	string(BatchExecuteTransactionInstructionDiscriminator): "batch_execute_transaction",
	string(ProposalCreateInstructionDiscriminator):          "proposal_create",
	string(ProposalActivateInstructionDiscriminator):        "proposal_activate",
	string(ProposalApproveInstructionDiscriminator):         "proposal_approve",
	string(ProposalRejectInstructionDiscriminator):          "proposal_reject",
}

// InstructionName names a multisig program instruction from its data
func InstructionName(data []byte) (string, bool) {
	if len(data) < discriminatorSize {
		return "", false
	}
	name, ok := instructionNames[string(data[:discriminatorSize])]
	return name, ok
}
