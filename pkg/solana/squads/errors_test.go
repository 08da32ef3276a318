package squads

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/vault-governor/pkg/solana"
)

func TestCustomErrorName(t *testing.T) {
	name, ok := CustomErrorName(6000)
	assert.True(t, ok)
	assert.Equal(t, "DuplicateMember", name)

	name, ok = CustomErrorName(6004)
	assert.True(t, ok)
	assert.Equal(t, "Unauthorized", name)

	_, ok = CustomErrorName(5999)
	assert.False(t, ok)
	_, ok = CustomErrorName(customErrorOffset + solana.CustomError(len(customErrorNames)))
	assert.False(t, ok)
}

func TestDescribeError(t *testing.T) {
	assert.Empty(t, DescribeError(nil))

	wrapped := errors.Wrap(solana.InstructionError{Index: 1, Err: solana.CustomError(6004)}, "failed to execute")
	assert.Equal(t, "Unauthorized (6004)", DescribeError(wrapped))

	other := errors.New("boom")
	assert.Equal(t, "boom", DescribeError(other))
}
