package squads

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana"
)

const customErrorOffset = 6000

var customErrorNames = []string{
	"DuplicateMember",
	"EmptyMembers",
	"TooManyMembers",
	"InvalidThreshold",
	"Unauthorized",
	"NotAMember",
	"InvalidTransactionMessage",
	"StaleProposal",
	"InvalidProposalStatus",
	"InvalidTransactionIndex",
	"AlreadyApproved",
	"AlreadyRejected",
	"AlreadyCancelled",
	"InvalidNumberOfAccounts",
	"InvalidAccount",
	"RemoveLastMember",
	"NoVoters",
	"NoProposers",
	"NoExecutors",
	"InvalidStaleTransactionIndex",
	"NotSupportedForControlled",
	"TimeLockNotReleased",
	"NoActions",
	"MissingAccount",
	"InvalidMint",
	"InvalidDestination",
	"SpendingLimitExceeded",
	"DecimalsMismatch",
	"UnknownPermission",
	"ProtectedAccount",
	"TimeLockExceedsMaxAllowed",
	"IllegalAccountOwner",
	"RentReclamationDisabled",
	"InvalidRentCollector",
	"ProposalForAnotherMultisig",
	"TransactionForAnotherMultisig",
	"TransactionNotMatchingProposal",
	"TransactionNotLastInBatch",
	"BatchNotEmpty",
	"SpendingLimitInvalidAmount",
}

// CustomErrorName returns the multisig program's name for a custom error code
func CustomErrorName(code solana.CustomError) (string, bool) {
	i := int(code) - customErrorOffset
	if i < 0 || i >= len(customErrorNames) {
		return "", false
	}
	return customErrorNames[i], true
}

// DescribeError names the multisig program error wrapped by err, falling back
// to err's own message when it isn't one
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	var custom solana.CustomError
	if errors.As(err, &custom) {
		if name, ok := CustomErrorName(custom); ok {
			return fmt.Sprintf("%s (%d)", name, int(custom))
		}
	}
	return err.Error()
}
