package governor

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/vault-governor/pkg/cache"
	"github.com/code-payments/vault-governor/pkg/metrics"
	"github.com/code-payments/vault-governor/pkg/solana"
	address_lookup_table "github.com/code-payments/vault-governor/pkg/solana/addresslookuptable"
)

// GetLookupTableAccount fetches and decodes a lookup table account, bypassing
// the cache
func (g *Governor) GetLookupTableAccount(ctx context.Context, address ed25519.PublicKey) (*address_lookup_table.AddressLookupTableAccount, error) {
	info, err := g.client.GetAccountInfo(address, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return nil, errors.Wrap(ErrAccountNotFound, base58.Encode(address))
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to get lookup table %s", base58.Encode(address))
	}

	if !bytes.Equal(info.Owner, address_lookup_table.ProgramKey) {
		return nil, errors.Errorf("account %s is not a lookup table", base58.Encode(address))
	}

	var account address_lookup_table.AddressLookupTableAccount
	if err := account.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrapf(err, "invalid lookup table %s", base58.Encode(address))
	}
	return &account, nil
}

// GetLookupTable returns an active lookup table, served from the cache when
// possible
func (g *Governor) GetLookupTable(ctx context.Context, address ed25519.PublicKey) (solana.AddressLookupTable, error) {
	key := base58.Encode(address)
	if table, ok := g.lookupTables.Retrieve(key); ok {
		return table, nil
	}

	account, err := g.GetLookupTableAccount(ctx, address)
	if err != nil {
		return solana.AddressLookupTable{}, err
	}
	if !account.IsActive() {
		return solana.AddressLookupTable{}, errors.Wrap(ErrLookupTableInactive, key)
	}

	table := account.ToLookupTable(address)
	if err := g.lookupTables.Insert(key, table, len(table.Addresses)+1); err != nil && err != cache.ErrKeyExists {
		g.log.WithError(err).WithField("lookup_table", key).Warn("failed to cache lookup table")
	}
	return table, nil
}

// GetLookupTables returns the configured lookup tables
func (g *Governor) GetLookupTables(ctx context.Context) ([]solana.AddressLookupTable, error) {
	tables := make([]solana.AddressLookupTable, 0, len(g.lookupTableAddresses))
	for _, address := range g.lookupTableAddresses {
		table, err := g.GetLookupTable(ctx, address)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// resolveMessageTables returns the tables referenced by a stored message. A
// cached table that is too short for an index was extended after it was
// cached, so it is refetched.
func (g *Governor) resolveMessageTables(ctx context.Context, lookups []solana.MessageAddressTableLookup) ([]solana.AddressLookupTable, error) {
	tables := make([]solana.AddressLookupTable, 0, len(lookups))
	for _, lookup := range lookups {
		table, err := g.GetLookupTable(ctx, lookup.PublicKey)
		if err != nil {
			return nil, err
		}

		if int(maxIndex(lookup)) >= len(table.Addresses) {
			g.lookupTables.Remove(base58.Encode(lookup.PublicKey))
			if table, err = g.GetLookupTable(ctx, lookup.PublicKey); err != nil {
				return nil, err
			}
		}

		tables = append(tables, table)
	}
	return tables, nil
}

func maxIndex(lookup solana.MessageAddressTableLookup) uint8 {
	var highest uint8
	for _, indexes := range [][]byte{lookup.WritableIndexes, lookup.ReadonlyIndexes} {
		for _, index := range indexes {
			if index > highest {
				highest = index
			}
		}
	}
	return highest
}

// EnsureLookupTable makes sure a lookup table owned by the signer contains
// every address. When table is nil a new table is created first. The address
// of the table is returned.
func (g *Governor) EnsureLookupTable(ctx context.Context, table ed25519.PublicKey, addresses []ed25519.PublicKey) (ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "EnsureLookupTable")
	defer tracer.End()

	authority := g.Member()
	missing := addresses

	if table == nil {
		slot, err := g.client.GetSlot(solana.CommitmentFinalized)
		if err != nil {
			tracer.OnError(err)
			return nil, errors.Wrap(err, "failed to get recent slot")
		}

		address, bump, err := address_lookup_table.GetAddress(authority, slot)
		if err != nil {
			tracer.OnError(err)
			return nil, errors.Wrap(err, "failed to derive lookup table address")
		}

		create := address_lookup_table.Create(address, authority, authority, slot, bump)
		if _, err := g.Submit(ctx, "lookup table creation", []solana.Instruction{create}, nil); err != nil {
			tracer.OnError(err)
			return nil, err
		}
		table = address
	} else {
		account, err := g.GetLookupTableAccount(ctx, table)
		if err != nil {
			tracer.OnError(err)
			return nil, err
		}
		if !account.IsActive() {
			return nil, errors.Wrap(ErrLookupTableInactive, base58.Encode(table))
		}
		if !bytes.Equal(account.Authority, authority) {
			return nil, errors.Errorf("lookup table %s is not owned by %s", base58.Encode(table), base58.Encode(authority))
		}
		missing = account.MissingAddresses(addresses...)
	}

	log := g.log.WithFields(logrus.Fields{
		"method":       "EnsureLookupTable",
		"lookup_table": base58.Encode(table),
		"missing":      len(missing),
	})
	log.Info("extending lookup table")

	for _, extend := range address_lookup_table.ExtendInBatches(table, authority, authority, missing...) {
		if _, err := g.Submit(ctx, "lookup table extension", []solana.Instruction{extend}, nil); err != nil {
			tracer.OnError(err)
			return table, err
		}
	}

	g.lookupTables.Remove(base58.Encode(table))
	return table, nil
}
