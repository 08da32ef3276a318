package governor

import (
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/code-payments/vault-governor/pkg/solana"
)

type fakeClient struct {
	sync.Mutex

	accounts      map[string]solana.AccountInfo
	slot          uint64
	simulationErr *solana.TransactionError

	simulated []solana.Transaction
	submitted []solana.Transaction
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		accounts: make(map[string]solana.AccountInfo),
		slot:     1000,
	}
}

func (c *fakeClient) setAccount(address, owner ed25519.PublicKey, data []byte) {
	c.Lock()
	defer c.Unlock()

	c.accounts[base58.Encode(address)] = solana.AccountInfo{
		Owner: owner,
		Data:  data,
	}
}

func (c *fakeClient) deleteAccount(address ed25519.PublicKey) {
	c.Lock()
	defer c.Unlock()

	delete(c.accounts, base58.Encode(address))
}

func (c *fakeClient) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.Lock()
	defer c.Unlock()

	info, ok := c.accounts[base58.Encode(address)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *fakeClient) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return (size + 128) * 6960, nil
}

func (c *fakeClient) GetLatestBlockhash() (solana.Blockhash, error) {
	return solana.Blockhash{1, 2, 3}, nil
}

func (c *fakeClient) GetSignatureStatus(solana.Signature, solana.Commitment) (*solana.SignatureStatus, error) {
	return &solana.SignatureStatus{ConfirmationStatus: "finalized"}, nil
}

func (c *fakeClient) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i := range sigs {
		statuses[i] = &solana.SignatureStatus{ConfirmationStatus: "finalized"}
	}
	return statuses, nil
}

func (c *fakeClient) GetSlot(solana.Commitment) (uint64, error) {
	return c.slot, nil
}

func (c *fakeClient) SimulateTransaction(txn solana.Transaction, _ solana.Commitment) (*solana.SimulationResult, error) {
	c.Lock()
	defer c.Unlock()

	c.simulated = append(c.simulated, txn)
	return &solana.SimulationResult{
		Err:           c.simulationErr,
		Logs:          []string{"Program log: simulated"},
		UnitsConsumed: 5000,
	}, nil
}

func (c *fakeClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.Lock()
	defer c.Unlock()

	c.submitted = append(c.submitted, txn)
	return txn.Signatures[0], nil
}

func (c *fakeClient) getSubmitted() []solana.Transaction {
	c.Lock()
	defer c.Unlock()

	return append([]solana.Transaction(nil), c.submitted...)
}

func (c *fakeClient) getSimulated() []solana.Transaction {
	c.Lock()
	defer c.Unlock()

	return append([]solana.Transaction(nil), c.simulated...)
}
