package main

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/starknet-api/blockchain"
	"github.com/NethermindEth/starknet-api/core"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/db"
	"github.com/NethermindEth/starknet-api/db/pebble"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/NethermindEth/starknet-api/validator"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

const (
	blockNumberF = "block-number"

	blockNumberUsage = "Number of the block to show, the head when unset."
)

// StoreInput is the document read by `db store`.
type StoreInput struct {
	BlockHeader *core.BlockHeader    `json:"block_header" validate:"required"`
	StateUpdate *core.StateUpdate    `json:"state_update" validate:"required"`
	Signature   *core.BlockSignature `json:"signature,omitempty"`
}

type BlockInfo struct {
	BlockHeader *core.BlockHeader     `json:"block_header"`
	StateUpdate *core.ThinStateUpdate `json:"state_update"`
	Signature   *core.BlockSignature  `json:"signature,omitempty"`
}

type DBInfo struct {
	Network         string     `json:"network"`
	ChainHeight     uint64     `json:"chain_height"`
	LatestBlockHash *felt.Hash `json:"latest_block_hash"`
	LatestStateRoot *felt.Hash `json:"latest_state_root"`
}

func DBCmd(a *app) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database related operations",
		Long:  `This command stores state updates in the database at --db-path and reads them back.`,
	}

	dbCmd.AddCommand(DBStoreCmd(a), DBShowCmd(a), DBInfoCmd(a))
	return dbCmd
}

func DBStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Store a block header with its state update",
		Long: `This subcommand reads {block_header, state_update, signature} and appends the block to the stored
chain. When a signature is given it is verified against the sequencer key first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(inF)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}

			var in StoreInput
			if err = json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}
			if err = validator.Validator().Struct(in); err != nil {
				return fmt.Errorf("invalid input: %w", err)
			}

			pubKey, err := a.cfg.SequencerKey()
			if err != nil {
				return err
			}

			return withStore(a, func(chain *blockchain.Store) error {
				if in.Signature != nil {
					err = chain.StoreSignedStateUpdate(in.BlockHeader, in.StateUpdate, in.Signature)
				} else {
					err = chain.StoreStateUpdate(in.BlockHeader, in.StateUpdate)
				}
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored block %d %s\n", in.BlockHeader.Number,
					in.BlockHeader.BlockHash)
				return err
			}, blockchain.WithSignatureVerifier(core.NewBlockAuthenticator(), &pubKey))
		},
	}
	cmd.Flags().String(inF, "-", inUsage)
	return cmd
}

func DBShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored block header with its thin state update",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(a, func(chain *blockchain.Store) error {
				var (
					info   BlockInfo
					number uint64
					err    error
				)
				if cmd.Flags().Changed(blockNumberF) {
					if number, err = cmd.Flags().GetUint64(blockNumberF); err != nil {
						return err
					}
					info.BlockHeader, err = chain.BlockHeaderByNumber(core.BlockNumber(number))
				} else {
					info.BlockHeader, err = chain.Head()
				}
				if err != nil {
					return fmt.Errorf("get block header: %w", err)
				}

				if info.StateUpdate, err = chain.StateUpdateByNumber(info.BlockHeader.Number); err != nil {
					return fmt.Errorf("get state update: %w", err)
				}
				info.Signature, err = chain.BlockSignatureByNumber(info.BlockHeader.Number)
				if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
					return fmt.Errorf("get signature: %w", err)
				}
				return printJSON(cmd, info)
			})
		},
	}
	cmd.Flags().Uint64(blockNumberF, 0, blockNumberUsage)
	return cmd
}

func DBInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Retrieve database information",
		Long:  `This subcommand retrieves and displays blockchain information stored in the database.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(a, func(chain *blockchain.Store) error {
				head, err := chain.Head()
				if err != nil {
					return fmt.Errorf("failed to get the latest block information: %w", err)
				}

				return printJSON(cmd, DBInfo{
					Network:         a.cfg.Network.String(),
					ChainHeight:     uint64(head.Number),
					LatestBlockHash: &head.BlockHash,
					LatestStateRoot: &head.StateRoot,
				})
			})
		},
	}
}

// withStore opens the database at the configured path for the duration of fn
func withStore(a *app, fn func(*blockchain.Store) error, opts ...blockchain.Option) (err error) {
	database, err := pebble.New(a.cfg.DBPath,
		pebble.WithCacheSize(a.cfg.DBCacheSizeMB),
		pebble.WithLogger(utils.NewLogLevel(max(a.cfg.LogLevel, utils.WARN)), a.cfg.Colour),
	)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		err = utils.RunAndWrapOnError(database.Close, err)
	}()

	opts = append([]blockchain.Option{
		blockchain.WithLogger(a.log),
		blockchain.WithListener(blockchain.MetricsListener()),
	}, opts...)
	chain, err := blockchain.New(database.WithListener(blockchain.DBMetricsListener()), opts...)
	if err != nil {
		return err
	}
	return fn(chain)
}
