package cmd

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/code-payments/vault-governor/pkg/solana"
)

// instructionsFile is the YAML or TOML document describing the instructions
// of a single vault transaction
type instructionsFile struct {
	Instructions []instructionEntry `yaml:"instructions" toml:"instructions"`
}

type instructionEntry struct {
	Program  string         `yaml:"program" toml:"program"`
	Accounts []accountEntry `yaml:"accounts" toml:"accounts"`

	// Data is base64 encoded
	Data string `yaml:"data" toml:"data"`
}

type accountEntry struct {
	Pubkey   string `yaml:"pubkey" toml:"pubkey"`
	Signer   bool   `yaml:"signer" toml:"signer"`
	Writable bool   `yaml:"writable" toml:"writable"`
}

func loadInstructions(path string) ([]solana.Instruction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read instructions %s", path)
	}

	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		unmarshal = toml.Unmarshal
	}

	var file instructionsFile
	if err := unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(err, "invalid instructions %s", path)
	}
	if len(file.Instructions) == 0 {
		return nil, errors.Errorf("no instructions in %s", path)
	}

	instructions := make([]solana.Instruction, len(file.Instructions))
	for i, entry := range file.Instructions {
		ix, err := entry.toInstruction()
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}
		instructions[i] = ix
	}
	return instructions, nil
}

func (e instructionEntry) toInstruction() (solana.Instruction, error) {
	program, err := decodeKey(e.Program)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "program")
	}

	data, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "data")
	}

	accounts := make([]solana.AccountMeta, len(e.Accounts))
	for i, account := range e.Accounts {
		key, err := decodeKey(account.Pubkey)
		if err != nil {
			return solana.Instruction{}, errors.Wrapf(err, "account %d", i)
		}
		accounts[i] = solana.AccountMeta{
			PublicKey:  key,
			IsSigner:   account.Signer,
			IsWritable: account.Writable,
		}
	}

	return solana.NewInstruction(program, data, accounts...), nil
}

func decodeKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", value)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address %q: expected 32 bytes, got %d", value, len(decoded))
	}
	return decoded, nil
}

func newAddInstructionCmd(app *app) *cobra.Command {
	var index uint64
	var path string

	cmd := &cobra.Command{
		Use:   "add-instruction",
		Short: "Add a vault transaction to the batch of a draft proposal",
		Long:  "Add a vault transaction built from the instructions in a YAML file to the batch of a draft proposal. The vault pays for and signs the transaction when it executes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			instructions, err := loadInstructions(path)
			if err != nil {
				return err
			}

			return app.run(cmd, func(ctx context.Context) error {
				transactionIndex, sig, err := app.governor.AddInstructions(ctx, index, instructions)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "added transaction %d to proposal %d: %s\n", transactionIndex, index, sig)
				return err
			})
		},
	}

	addProposalIndexFlag(cmd, &index)
	cmd.Flags().StringVar(&path, "file", "", "YAML or TOML file listing the instructions of the transaction")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newEnsureLookupTableCmd(app *app) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "ensure-lookup-table [address...]",
		Short: "Create or extend a lookup table owned by the signer",
		Long:  "Make sure a lookup table owned by the signer contains every address. A new table is created when --table is not set.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addresses := make([]ed25519.PublicKey, len(args))
			for i, arg := range args {
				key, err := decodeKey(arg)
				if err != nil {
					return err
				}
				addresses[i] = key
			}

			var existing ed25519.PublicKey
			if len(table) > 0 {
				key, err := decodeKey(table)
				if err != nil {
					return errors.Wrap(err, "table")
				}
				existing = key
			}

			return app.run(cmd, func(ctx context.Context) error {
				address, err := app.governor.EnsureLookupTable(ctx, existing, addresses)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "lookup table: %s\n", base58.Encode(address))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "address of an existing lookup table")
	return cmd
}
