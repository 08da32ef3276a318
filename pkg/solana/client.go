package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/vault-governor/pkg/rate"
	"github.com/code-payments/vault-governor/pkg/retry"
	"github.com/code-payments/vault-governor/pkg/retry/backoff"
)

const (
	// todo: we can retrieve these from the Syscall account
	//       but they're unlikely to change.
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which blocks should be polled at.
	PollRate = (time.Second / slotsPerSec) / 2

	// Poll rate is ~2x the slot rate, and we want to wait ~32 slots
	sigStatusPollLimit = 2 * 32

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// SimulationResult is the outcome of simulating a transaction against the
// current bank state.
type SimulationResult struct {
	Err           *TransactionError
	Logs          []string
	UnitsConsumed uint64
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetLatestBlockhash() (Blockhash, error)
	GetSignatureStatus(Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses([]Signature) ([]*SignatureStatus, error)
	GetSlot(Commitment) (uint64, error)
	SimulateTransaction(Transaction, Commitment) (*SimulationResult, error)
	SubmitTransaction(Transaction, Commitment) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
	limiter rate.Limiter

	blockMu   sync.RWMutex
	blockhash Blockhash
	lastWrite time.Time
}

// ClientOption configures a Client.
type ClientOption func(*client)

// WithRateLimiter throttles outgoing requests, keyed by RPC method.
func WithRateLimiter(limiter rate.Limiter) ClientOption {
	return func(c *client) {
		c.limiter = limiter
	}
}

// New returns a client using the specified endpoint.
func New(endpoint string, opts ...ClientOption) Client {
	return NewWithRPCOptions(endpoint, nil, opts...)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, rpcOpts *jsonrpc.RPCClientOpts, opts ...ClientOption) Client {
	c := &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClientWithOpts(endpoint, rpcOpts),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
		limiter: &rate.NoLimiter{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		if err := c.limiter.Wait(context.Background(), method); err != nil {
			return err
		}

		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})

	return err
}

func (c *client) handleRpcError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}
	if rpcErr.Code == 429 {
		c.log.WithField("method", method).Error("rate limited")
		return errRateLimited
	}
	if rpcErr.Code >= 500 || rpcErr.Code == rpcNodeUnhealthyCode {
		return errServiceError
	}

	return err
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (lamports uint64, err error) {
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	return lamports, nil
}

func (c *client) GetSlot(commitment Commitment) (slot uint64, err error) {
	// note: we have to wrap the commitment in an []interface{} otherwise the
	//       solana RPC node complains. Technically this is a violation of the
	//       JSON RPC v2.0 spec.
	if err := c.call(&slot, "getSlot", []interface{}{commitment}); err != nil {
		return 0, errors.Wrapf(err, "getSlot() failed to send request")
	}

	return slot, nil
}

func (c *client) GetLatestBlockhash() (hash Blockhash, err error) {
	// Randomize when the cached blockhash is refreshed, so concurrent callers
	// don't all hit the RPC node at the same time.
	window := time.Duration(float64(2*time.Second) * (0.8 + rand.Float64()))

	c.blockMu.RLock()
	if time.Since(c.lastWrite) < window {
		hash = c.blockhash
	}
	c.blockMu.RUnlock()

	if hash != (Blockhash{}) {
		return hash, nil
	}

	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getLatestBlockhash"); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}

	copy(hash[:], hashBytes)

	c.blockMu.Lock()
	c.blockhash = hash
	c.lastWrite = time.Now()
	c.blockMu.Unlock()

	return hash, nil
}

func (c *client) SimulateTransaction(txn Transaction, commitment Commitment) (*SimulationResult, error) {
	// Partially signed transactions, such as ones carrying votes from other
	// members, can only be simulated without signature verification.
	fullySigned := txn.FullySigned()
	config := struct {
		Encoding               string `json:"encoding"`
		Commitment             string `json:"commitment"`
		SigVerify              bool   `json:"sigVerify"`
		ReplaceRecentBlockhash bool   `json:"replaceRecentBlockhash"`
	}{
		Encoding:               "base64",
		Commitment:             commitment.Commitment,
		SigVerify:              fullySigned,
		ReplaceRecentBlockhash: !fullySigned,
	}

	var resp struct {
		Value struct {
			Err           json.RawMessage `json:"err"`
			Logs          []string        `json:"logs"`
			UnitsConsumed uint64          `json:"unitsConsumed"`
		} `json:"value"`
	}
	if err := c.call(&resp, "simulateTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config); err != nil {
		return nil, errors.Wrap(err, "simulateTransaction() failed to send request")
	}

	txErr, err := parseRawTransactionError(resp.Value.Err)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse simulation result")
	}

	return &SimulationResult{
		Err:           txErr,
		Logs:          resp.Value.Logs,
		UnitsConsumed: resp.Value.UnitsConsumed,
	}, nil
}

func (c *client) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signatures[0]
	txnBytes := txn.Marshal()

	config := struct {
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		SkipPreflight:       true,
		PreflightCommitment: commitment.Commitment,
	}

	var sigStr string
	err := c.call(&sigStr, "sendTransaction", base58.Encode(txnBytes), config)
	if err != nil {
		jsonRPCErr, ok := err.(*jsonrpc.RPCError)
		if !ok {
			return sig, errors.Wrapf(err, "sendTransaction() failed to send request")
		}

		txResult, parseErr := ParseRPCError(jsonRPCErr)
		if parseErr != nil {
			return sig, err
		}

		if txResult != nil {
			c.log.WithFields(logrus.Fields{
				"method":    "SubmitTransaction",
				"signature": sig.String(),
			}).WithError(txResult).Debug("transaction rejected")

			if txResult.transactionError != nil {
				return sig, txResult.transactionError
			}
			if txResult.instructionError != nil {
				return sig, txResult.instructionError
			}
			return sig, errors.Errorf("unknown error")
		}

		return sig, nil
	}

	return sig, err
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment Commitment `json:"commitment"`
		Encoding   string     `json:"encoding"`
	}{
		Commitment: commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data")
	}
	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	var s *SignatureStatus
	errConfirmationsNotReached := errors.New("confirmations not reached")
	_, err := retry.Retry(
		func() error {
			statuses, err := c.GetSignatureStatuses([]Signature{sig})
			if err != nil {
				return err
			}

			s = statuses[0]
			if s == nil {
				return ErrSignatureNotFound
			}

			if s.ErrorResult != nil {
				return nil
			}

			if commitment.Satisfies(*s) {
				return nil
			}

			return errConfirmationsNotReached
		},
		retry.RetriableErrors(ErrSignatureNotFound, errConfirmationsNotReached),
		retry.Limit(sigStatusPollLimit),
		retry.Backoff(backoff.Constant(PollRate), PollRate),
	)

	return s, err
}

func (c *client) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = base58.Encode(sigs[i][:])
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Context struct {
			Slot int `json:"slot"`
		} `json:"context"`
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(&resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		statuses[i] = &SignatureStatus{}
		statuses[i].Confirmations = v.Confirmations
		statuses[i].ConfirmationStatus = v.ConfirmationStatus
		statuses[i].Slot = v.Slot

		var err error
		statuses[i].ErrorResult, err = parseRawTransactionError(v.Err)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse transaction result")
		}
	}

	return statuses, nil
}

// Satisfies reports whether the status has reached the commitment level
func (c Commitment) Satisfies(s SignatureStatus) bool {
	switch c {
	case CommitmentProcessed:
		return true
	case CommitmentConfirmed:
		return s.Confirmed()
	case CommitmentFinalized:
		return s.Finalized()
	}
	return false
}

func parseRawTransactionError(raw json.RawMessage) (*TransactionError, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var txError interface{}
	if err := json.NewDecoder(bytes.NewBuffer(raw)).Decode(&txError); err != nil {
		return nil, err
	}
	return ParseTransactionError(txError)
}
