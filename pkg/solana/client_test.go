package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-governor/pkg/rate"
)

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	testCases := []struct {
		s         SignatureStatus
		confirmed bool
		finalized bool
	}{
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: "",
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: "random",
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusProcessed,
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &one,
				ConfirmationStatus: "",
			},
			confirmed: true,
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusConfirmed,
			},
			confirmed: true,
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusFinalized,
			},
			confirmed: true,
			finalized: true,
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.confirmed, tc.s.Confirmed())
		assert.Equal(t, tc.finalized, tc.s.Finalized())
	}
}

func TestCommitment_Satisfies(t *testing.T) {
	zero, one := 0, 1

	processed := SignatureStatus{Confirmations: &zero, ConfirmationStatus: confirmationStatusProcessed}
	confirmed := SignatureStatus{Confirmations: &one, ConfirmationStatus: confirmationStatusConfirmed}
	finalized := SignatureStatus{ConfirmationStatus: confirmationStatusFinalized}

	assert.True(t, CommitmentProcessed.Satisfies(processed))
	assert.False(t, CommitmentConfirmed.Satisfies(processed))
	assert.True(t, CommitmentConfirmed.Satisfies(confirmed))
	assert.False(t, CommitmentFinalized.Satisfies(confirmed))
	assert.True(t, CommitmentFinalized.Satisfies(finalized))
	assert.False(t, Commitment{Commitment: "unknown"}.Satisfies(finalized))
}

type rpcRequest struct {
	ID     int               `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestRPCServer(t *testing.T, handler func(req rpcRequest) interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handler(req),
		}))
	}))
}

func TestClient_GetAccountInfo(t *testing.T) {
	account := testKey(1)
	owner := testKey(2)
	data := []byte{1, 2, 3, 4}

	server := newTestRPCServer(t, func(req rpcRequest) interface{} {
		assert.Equal(t, "getAccountInfo", req.Method)

		var requested string
		require.NoError(t, json.Unmarshal(req.Params[0], &requested))
		if requested != base58.Encode(account) {
			return map[string]interface{}{"value": nil}
		}

		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   1000,
				"owner":      base58.Encode(owner),
				"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"executable": false,
			},
		}
	})
	defer server.Close()

	c := New(server.URL)

	info, err := c.GetAccountInfo(account, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, data, info.Data)
	assert.Equal(t, ed25519.PublicKey(owner), info.Owner)
	assert.EqualValues(t, 1000, info.Lamports)

	_, err = c.GetAccountInfo(testKey(3), CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_SimulateTransaction(t *testing.T) {
	keys := generateKeys(t, 2)
	tx, err := NewTransaction(public(keys[0]), NewInstruction(public(keys[1]), []byte{1}))
	require.NoError(t, err)
	require.NoError(t, tx.Sign(keys[0]))

	var fail atomic.Bool
	server := newTestRPCServer(t, func(req rpcRequest) interface{} {
		assert.Equal(t, "simulateTransaction", req.Method)

		var encoded string
		require.NoError(t, json.Unmarshal(req.Params[0], &encoded))
		assert.Equal(t, base64.StdEncoding.EncodeToString(tx.Marshal()), encoded)

		value := map[string]interface{}{
			"err":           nil,
			"logs":          []string{"Program log: ok"},
			"unitsConsumed": 150,
		}
		if fail.Load() {
			value["err"] = map[string]interface{}{
				"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6004}},
			}
		}
		return map[string]interface{}{"value": value}
	})
	defer server.Close()

	c := New(server.URL)

	result, err := c.SimulateTransaction(tx, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Nil(t, result.Err)
	assert.Equal(t, []string{"Program log: ok"}, result.Logs)
	assert.EqualValues(t, 150, result.UnitsConsumed)

	fail.Store(true)
	result, err = c.SimulateTransaction(tx, CommitmentConfirmed)
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	require.NotNil(t, result.Err.InstructionError())
	assert.Equal(t, CustomError(6004), *result.Err.InstructionError().CustomError())

	simErr := &SimulationError{Err: result.Err, Logs: result.Logs}
	var customErr CustomError
	assert.True(t, errors.As(simErr, &customErr))
	assert.Equal(t, CustomError(6004), customErr)
}

type recordingLimiter struct {
	rate.NoLimiter

	mu   sync.Mutex
	keys []string
}

func (l *recordingLimiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.keys = append(l.keys, key)
	return nil
}

func TestClient_RateLimiter(t *testing.T) {
	var calls atomic.Int32
	server := newTestRPCServer(t, func(req rpcRequest) interface{} {
		calls.Add(1)
		return 42
	})
	defer server.Close()

	limiter := &recordingLimiter{}
	c := New(server.URL, WithRateLimiter(limiter))

	for i := 0; i < 3; i++ {
		slot, err := c.GetSlot(CommitmentFinalized)
		require.NoError(t, err)
		assert.EqualValues(t, 42, slot)
	}

	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []string{"getSlot", "getSlot", "getSlot"}, limiter.keys)
}
