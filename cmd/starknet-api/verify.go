package main

import (
	"fmt"
	"strconv"

	"github.com/NethermindEth/starknet-api/blockchain"
	"github.com/NethermindEth/starknet-api/core"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	blockHashF  = "block-hash"
	commitmentF = "commitment"
	signatureRF = "r"
	signatureSF = "s"
	batchF      = "batch"

	blockHashUsage  = "Hash of the signed block."
	commitmentUsage = "State diff commitment of the signed block."
	signatureRUsage = "r component of the signature."
	signatureSUsage = "s component of the signature."
	batchUsage      = "JSON file with an array of {block_hash, state_diff_commitment, signature: {r, s}}, - reads stdin."
)

func VerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify sequencer signatures over blocks",
		Long: `This command checks that blocks were signed by the sequencer of the configured network, or by
--public-key. Either a single block is given through flags or a batch is read with --batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := cmd.Flags().GetString(batchF)
			if err != nil {
				return err
			}
			if batch != "" {
				return verifyBatch(cmd, a, batch)
			}
			return verifySingle(cmd, a)
		},
	}

	cmd.Flags().String(blockHashF, "", blockHashUsage)
	cmd.Flags().String(commitmentF, "", commitmentUsage)
	cmd.Flags().String(signatureRF, "", signatureRUsage)
	cmd.Flags().String(signatureSF, "", signatureSUsage)
	cmd.Flags().String(batchF, "", batchUsage)
	cmd.MarkFlagsRequiredTogether(blockHashF, commitmentF, signatureRF, signatureSF)
	cmd.MarkFlagsMutuallyExclusive(batchF, blockHashF)
	return cmd
}

func feltFlag(cmd *cobra.Command, name string) (felt.Felt, error) {
	var f felt.Felt
	text, err := cmd.Flags().GetString(name)
	if err != nil {
		return f, err
	}
	if text == "" {
		return f, fmt.Errorf("--%s is required", name)
	}
	if err = f.UnmarshalText([]byte(text)); err != nil {
		return f, fmt.Errorf("--%s: %w", name, err)
	}
	return f, nil
}

func verifySingle(cmd *cobra.Command, a *app) error {
	var (
		block core.SignedBlock
		err   error
	)
	values := []struct {
		flag string
		dst  *felt.Felt
	}{
		{blockHashF, (*felt.Felt)(&block.BlockHash)},
		{commitmentF, (*felt.Felt)(&block.StateDiffCommitment)},
		{signatureRF, &block.Signature.R},
		{signatureSF, &block.Signature.S},
	}
	for _, v := range values {
		if *v.dst, err = feltFlag(cmd, v.flag); err != nil {
			return err
		}
	}

	pubKey, err := a.cfg.SequencerKey()
	if err != nil {
		return err
	}

	valid, err := core.NewBlockAuthenticator().Verify(&pubKey, &block.Signature, &block.StateDiffCommitment,
		&block.BlockHash)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("%w: block %s", blockchain.ErrInvalidSignature, block.BlockHash)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signature of block %s is valid\n", block.BlockHash)
	return err
}

func verifyBatch(cmd *cobra.Command, a *app, path string) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	var blocks []core.SignedBlock
	if err = json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("parse batch: %w", err)
	}

	pubKey, err := a.cfg.SequencerKey()
	if err != nil {
		return err
	}

	a.log.Infow("Verifying block signatures", "blocks", len(blocks), "maxGoroutines", a.cfg.MaxGoroutines)
	results, err := core.NewBlockAuthenticator().VerifyBatch(cmd.Context(), &pubKey, blocks, a.cfg.MaxGoroutines)
	if err != nil {
		return err
	}

	invalid := 0
	items := make([][]string, 0, len(results))
	for i, res := range results {
		outcome := "valid"
		switch {
		case res.Err != nil:
			outcome = res.Err.Error()
			invalid++
		case !res.Valid:
			outcome = "invalid"
			invalid++
		}
		items = append(items, []string{strconv.Itoa(i), blocks[i].BlockHash.String(), outcome})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"#", "Block hash", "Outcome"})
	table.SetAutoWrapText(false)
	table.AppendBulk(items)
	table.Render()

	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d blocks", blockchain.ErrInvalidSignature, invalid, len(blocks))
	}
	return nil
}
