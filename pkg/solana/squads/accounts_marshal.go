package squads

import (
	"crypto/ed25519"

	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

// Marshal encodes the account, including its discriminator
func (obj *MultisigAccount) Marshal() []byte {
	data := make([]byte,
		discriminatorSize+
			ed25519.PublicKeySize+ // create_key
			ed25519.PublicKeySize+ // config_authority
			2+ // threshold
			4+ // time_lock
			8+ // transaction_index
			8+ // stale_transaction_index
			binary.OptionalKeySize(obj.RentCollector)+ // rent_collector
			1+ // bump
			vecLengthSize+len(obj.Members)*memberSize) // members

	var offset int
	putDiscriminator(data, MultisigAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.CreateKey, &offset)
	binary.PutKey32(data[offset:], obj.ConfigAuthority, &offset)
	binary.PutUint16(data[offset:], obj.Threshold, &offset)
	binary.PutUint32(data[offset:], obj.TimeLock, &offset)
	binary.PutUint64(data[offset:], obj.TransactionIndex, &offset)
	binary.PutUint64(data[offset:], obj.StaleTransactionIndex, &offset)
	binary.PutOptionalKey(data[offset:], obj.RentCollector, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)
	binary.PutUint32(data[offset:], uint32(len(obj.Members)), &offset)
	for _, member := range obj.Members {
		binary.PutKey32(data[offset:], member.Key, &offset)
		binary.PutUint8(data[offset:], uint8(member.Permissions), &offset)
	}
	return data
}

// Marshal encodes the account, including its discriminator
func (obj *ProposalAccount) Marshal() []byte {
	statusSize := 1
	if _, ok := obj.Status.(TimestampedStatus); ok {
		statusSize += 8
	}

	data := make([]byte,
		discriminatorSize+
			ed25519.PublicKeySize+ // multisig
			8+ // transaction_index
			statusSize+ // status
			1+ // bump
			keyVecSize(obj.Approved)+
			keyVecSize(obj.Rejected)+
			keyVecSize(obj.Cancelled))

	var offset int
	putDiscriminator(data, ProposalAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.Multisig, &offset)
	binary.PutUint64(data[offset:], obj.TransactionIndex, &offset)
	binary.PutUint8(data[offset:], uint8(obj.Status.Kind()), &offset)
	if status, ok := obj.Status.(TimestampedStatus); ok {
		binary.PutInt64(data[offset:], status.At().Unix(), &offset)
	}
	binary.PutUint8(data[offset:], obj.Bump, &offset)
	putKeyVec(data[offset:], obj.Approved, &offset)
	putKeyVec(data[offset:], obj.Rejected, &offset)
	putKeyVec(data[offset:], obj.Cancelled, &offset)
	return data
}

// Marshal encodes the account, including its discriminator
func (obj *BatchAccount) Marshal() []byte {
	data := make([]byte,
		discriminatorSize+
			ed25519.PublicKeySize+ // multisig
			ed25519.PublicKeySize+ // creator
			8+ // index
			1+ // bump
			1+ // vault_index
			1+ // vault_bump
			4+ // size
			4) // executed_transaction_index

	var offset int
	putDiscriminator(data, BatchAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.Multisig, &offset)
	binary.PutKey32(data[offset:], obj.Creator, &offset)
	binary.PutUint64(data[offset:], obj.Index, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)
	binary.PutUint8(data[offset:], obj.VaultIndex, &offset)
	binary.PutUint8(data[offset:], obj.VaultBump, &offset)
	binary.PutUint32(data[offset:], obj.Size, &offset)
	binary.PutUint32(data[offset:], obj.ExecutedTransactionIndex, &offset)
	return data
}

// Marshal encodes the account, including its discriminator
func (obj *VaultBatchTransactionAccount) Marshal() []byte {
	m := obj.Message

	size := discriminatorSize +
		1 + // bump
		vecLengthSize + len(obj.EphemeralSignerBumps) + // ephemeral_signer_bumps
		3 + // message header
		keyVecSize(m.AccountKeys) +
		vecLengthSize // instructions
	for _, ix := range m.Instructions {
		size += 1 + vecLengthSize + len(ix.Accounts) + vecLengthSize + len(ix.Data)
	}
	size += vecLengthSize // address_table_lookups
	for _, lookup := range m.AddressTableLookups {
		size += ed25519.PublicKeySize + vecLengthSize + len(lookup.WritableIndexes) + vecLengthSize + len(lookup.ReadonlyIndexes)
	}

	data := make([]byte, size)

	var offset int
	putDiscriminator(data, VaultBatchTransactionAccountDiscriminator, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)
	binary.PutBytes32(data[offset:], obj.EphemeralSignerBumps, &offset)
	binary.PutUint8(data[offset:], m.NumSigners, &offset)
	binary.PutUint8(data[offset:], m.NumWritableSigners, &offset)
	binary.PutUint8(data[offset:], m.NumWritableNonSigners, &offset)
	putKeyVec(data[offset:], m.AccountKeys, &offset)

	binary.PutUint32(data[offset:], uint32(len(m.Instructions)), &offset)
	for _, ix := range m.Instructions {
		binary.PutUint8(data[offset:], ix.ProgramIndex, &offset)
		binary.PutBytes32(data[offset:], ix.Accounts, &offset)
		binary.PutBytes32(data[offset:], ix.Data, &offset)
	}

	binary.PutUint32(data[offset:], uint32(len(m.AddressTableLookups)), &offset)
	for _, lookup := range m.AddressTableLookups {
		binary.PutKey32(data[offset:], lookup.PublicKey, &offset)
		binary.PutBytes32(data[offset:], lookup.WritableIndexes, &offset)
		binary.PutBytes32(data[offset:], lookup.ReadonlyIndexes, &offset)
	}
	return data
}

func keyVecSize(keys []ed25519.PublicKey) int {
	return vecLengthSize + len(keys)*ed25519.PublicKeySize
}

func putKeyVec(dst []byte, keys []ed25519.PublicKey, offset *int) {
	var local int
	binary.PutUint32(dst[local:], uint32(len(keys)), &local)
	for _, key := range keys {
		binary.PutKey32(dst[local:], key, &local)
	}
	*offset += local
}
