package governor

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/vault-governor/pkg/cache"
	"github.com/code-payments/vault-governor/pkg/pointer"
	"github.com/code-payments/vault-governor/pkg/solana"
	"github.com/code-payments/vault-governor/pkg/solana/squads"
	syncutil "github.com/code-payments/vault-governor/pkg/sync"
)

var (
	ErrNotMember            = errors.New("signer is not a member of the multisig")
	ErrMissingPermission    = errors.New("member is missing a required permission")
	ErrInvalidProposalState = errors.New("proposal is not in a valid state for the operation")
	ErrAlreadyVoted         = errors.New("member has already voted on the proposal")
	ErrNotEnoughApprovals   = errors.New("proposal does not have enough approvals")
	ErrTimeLockNotReleased  = errors.New("proposal time lock has not been released")
	ErrEmptyBatch           = errors.New("batch has no pending transactions")
	ErrAccountNotFound      = errors.New("account not found")
	ErrLookupTableInactive  = errors.New("lookup table is deactivated")
)

const (
	defaultLookupTableCacheSize = 4096
	proposalLockStripes         = 32
)

// Governor drives the lifecycle of multisig proposals that execute batches of
// vault transactions: creation, population, voting, execution and inspection.
type Governor struct {
	log    *logrus.Entry
	conf   *conf
	client solana.Client
	signer ed25519.PrivateKey

	multisig   ed25519.PublicKey
	vaultIndex uint8
	vault      ed25519.PublicKey

	lookupTableAddresses []ed25519.PublicKey
	lookupTables         cache.Cache[solana.AddressLookupTable]

	// proposalLocks serializes operations that move a proposal between states
	proposalLocks *syncutil.StripedLock
}

// Option configures optional Governor behaviour
type Option func(*Governor)

// WithLookupTables sets the lookup tables used to compile vault messages and
// execute transactions
func WithLookupTables(addresses ...ed25519.PublicKey) Option {
	return func(g *Governor) {
		g.lookupTableAddresses = append(g.lookupTableAddresses, addresses...)
	}
}

// WithLookupTableCacheSize bounds the number of table addresses kept in memory
func WithLookupTableCacheSize(size int) Option {
	return func(g *Governor) {
		g.lookupTables = cache.NewCache[solana.AddressLookupTable](size)
	}
}

// New returns a Governor acting on behalf of signer for the vault at
// vaultIndex of multisig
func New(
	client solana.Client,
	signer ed25519.PrivateKey,
	multisig ed25519.PublicKey,
	vaultIndex uint8,
	configProvider ConfigProvider,
	opts ...Option,
) (*Governor, error) {
	vault, _, err := squads.GetVaultAddress(&squads.GetVaultAddressArgs{
		Multisig:   multisig,
		VaultIndex: vaultIndex,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive vault address")
	}

	g := &Governor{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":     "governor",
			"multisig": base58.Encode(multisig),
		}),
		conf:         configProvider(),
		client:       client,
		signer:       signer,
		multisig:     multisig,
		vaultIndex:   vaultIndex,
		vault:        vault,
		lookupTables:  cache.NewCache[solana.AddressLookupTable](defaultLookupTableCacheSize),
		proposalLocks: syncutil.NewStripedLock(proposalLockStripes),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Member is the public key of the signer
func (g *Governor) Member() ed25519.PublicKey {
	return g.signer.Public().(ed25519.PublicKey)
}

// Multisig is the multisig account address
func (g *Governor) Multisig() ed25519.PublicKey {
	return g.multisig
}

// Vault is the vault PDA that pays for and signs vault transactions
func (g *Governor) Vault() ed25519.PublicKey {
	return g.vault
}

// GetMultisig fetches and decodes the multisig account
func (g *Governor) GetMultisig(ctx context.Context) (*squads.MultisigAccount, error) {
	var account squads.MultisigAccount
	if err := g.getProgramAccount(g.multisig, account.Unmarshal); err != nil {
		return nil, errors.Wrap(err, "failed to get multisig")
	}
	return &account, nil
}

// GetProposal fetches and decodes the proposal at index
func (g *Governor) GetProposal(ctx context.Context, index uint64) (*squads.ProposalAccount, error) {
	address, err := g.proposalAddress(index)
	if err != nil {
		return nil, err
	}

	var account squads.ProposalAccount
	if err := g.getProgramAccount(address, account.Unmarshal); err != nil {
		return nil, errors.Wrapf(err, "failed to get proposal %d", index)
	}
	return &account, nil
}

// GetBatch fetches and decodes the batch at index
func (g *Governor) GetBatch(ctx context.Context, index uint64) (*squads.BatchAccount, error) {
	address, err := g.batchAddress(index)
	if err != nil {
		return nil, err
	}

	var account squads.BatchAccount
	if err := g.getProgramAccount(address, account.Unmarshal); err != nil {
		return nil, errors.Wrapf(err, "failed to get batch %d", index)
	}
	return &account, nil
}

// GetBatchTransaction fetches and decodes a transaction within a batch
func (g *Governor) GetBatchTransaction(ctx context.Context, batchIndex uint64, transactionIndex uint32) (*squads.VaultBatchTransactionAccount, error) {
	address, err := g.batchTransactionAddress(batchIndex, transactionIndex)
	if err != nil {
		return nil, err
	}

	var account squads.VaultBatchTransactionAccount
	if err := g.getProgramAccount(address, account.Unmarshal); err != nil {
		return nil, errors.Wrapf(err, "failed to get batch %d transaction %d", batchIndex, transactionIndex)
	}
	return &account, nil
}

func (g *Governor) getProgramAccount(address ed25519.PublicKey, unmarshal func([]byte) error) error {
	info, err := g.client.GetAccountInfo(address, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return errors.Wrap(ErrAccountNotFound, base58.Encode(address))
	} else if err != nil {
		return err
	}

	if !bytes.Equal(info.Owner, squads.PROGRAM_ID) {
		return errors.Wrapf(squads.ErrInvalidProgram, "account %s is owned by %s", base58.Encode(address), base58.Encode(info.Owner))
	}
	return unmarshal(info.Data)
}

func (g *Governor) proposalAddress(index uint64) (ed25519.PublicKey, error) {
	address, _, err := squads.GetProposalAddress(&squads.GetProposalAddressArgs{
		Multisig:         g.multisig,
		TransactionIndex: index,
	})
	return address, errors.Wrap(err, "failed to derive proposal address")
}

func (g *Governor) batchAddress(index uint64) (ed25519.PublicKey, error) {
	address, _, err := squads.GetTransactionAddress(&squads.GetTransactionAddressArgs{
		Multisig:         g.multisig,
		TransactionIndex: index,
	})
	return address, errors.Wrap(err, "failed to derive batch address")
}

func (g *Governor) batchTransactionAddress(batchIndex uint64, transactionIndex uint32) (ed25519.PublicKey, error) {
	address, _, err := squads.GetBatchTransactionAddress(&squads.GetBatchTransactionAddressArgs{
		Multisig:         g.multisig,
		BatchIndex:       batchIndex,
		TransactionIndex: transactionIndex,
	})
	return address, errors.Wrap(err, "failed to derive batch transaction address")
}

// requireMember checks the signer is a member holding every permission in p
func (g *Governor) requireMember(ms *squads.MultisigAccount, p squads.Permissions) error {
	member, ok := ms.IsMember(g.Member())
	if !ok {
		return ErrNotMember
	}
	if !member.Permissions.Has(p) {
		return errors.Wrapf(ErrMissingPermission, "has %s, requires %s", member.Permissions, p)
	}
	return nil
}

func requireStatus(proposal *squads.ProposalAccount, allowed ...squads.ProposalStatusKind) error {
	kind := proposal.Status.Kind()
	for _, candidate := range allowed {
		if kind == candidate {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidProposalState, "proposal %d is %s", proposal.TransactionIndex, kind)
}

// memo returns the configured memo, if any
func (g *Governor) memo(ctx context.Context) *string {
	memo := g.conf.memo.Get(ctx)
	return pointer.StringIfValid(len(memo) > 0, memo)
}

func (g *Governor) lockProposal(index uint64) func() {
	return g.proposalLocks.Lock(syncutil.Uint64Key(index))
}

// lockProposalCreation guards the multisig transaction index, which the next
// proposal is derived from
func (g *Governor) lockProposalCreation() func() {
	return g.proposalLocks.Lock(g.multisig)
}
