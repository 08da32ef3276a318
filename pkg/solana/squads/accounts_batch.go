package squads

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var BatchAccountDiscriminator = accountDiscriminator("Batch")

type BatchAccount struct {
	Multisig                 ed25519.PublicKey
	Creator                  ed25519.PublicKey
	Index                    uint64
	Bump                     uint8
	VaultIndex               uint8
	VaultBump                uint8
	Size                     uint32
	ExecutedTransactionIndex uint32
}

// ParseBatch decodes a batch account that has already had its discriminator
// removed
func ParseBatch(data []byte) (*BatchAccount, error) {
	r := binary.NewReader(data)

	var obj BatchAccount
	var err error

	if obj.Multisig, err = r.ReadKey(); err != nil {
		return nil, errors.Wrap(err, "multisig")
	}
	if obj.Creator, err = r.ReadKey(); err != nil {
		return nil, errors.Wrap(err, "creator")
	}
	if obj.Index, err = r.ReadUint64(); err != nil {
		return nil, errors.Wrap(err, "index")
	}
	if obj.Bump, err = r.ReadUint8(); err != nil {
		return nil, errors.Wrap(err, "bump")
	}
	if obj.VaultIndex, err = r.ReadUint8(); err != nil {
		return nil, errors.Wrap(err, "vault_index")
	}
	if obj.VaultBump, err = r.ReadUint8(); err != nil {
		return nil, errors.Wrap(err, "vault_bump")
	}
	if obj.Size, err = r.ReadUint32(); err != nil {
		return nil, errors.Wrap(err, "size")
	}
	if obj.ExecutedTransactionIndex, err = r.ReadUint32(); err != nil {
		return nil, errors.Wrap(err, "executed_transaction_index")
	}

	return &obj, nil
}

func (obj *BatchAccount) Unmarshal(data []byte) error {
	body, err := checkDiscriminator(data, BatchAccountDiscriminator)
	if err != nil {
		return err
	}

	parsed, err := ParseBatch(body)
	if err != nil {
		return err
	}

	*obj = *parsed
	return nil
}

// PendingTransactionIndexes returns the indexes, in execution order, of the
// batch transactions that have yet to be executed
func (obj *BatchAccount) PendingTransactionIndexes() []uint32 {
	if obj.ExecutedTransactionIndex >= obj.Size {
		return nil
	}

	res := make([]uint32, 0, obj.Size-obj.ExecutedTransactionIndex)
	for i := uint64(obj.ExecutedTransactionIndex) + 1; i <= uint64(obj.Size); i++ {
		res = append(res, uint32(i))
	}
	return res
}

func (obj *BatchAccount) String() string {
	return fmt.Sprintf(
		"BatchAccount{multisig=%s,creator=%s,index=%d,bump=%d,vault_index=%d,vault_bump=%d,size=%d,executed_transaction_index=%d}",
		base58.Encode(obj.Multisig),
		base58.Encode(obj.Creator),
		obj.Index,
		obj.Bump,
		obj.VaultIndex,
		obj.VaultBump,
		obj.Size,
		obj.ExecutedTransactionIndex,
	)
}
