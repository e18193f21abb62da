package main

import (
	"fmt"

	"github.com/NethermindEth/starknet-api/core"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type section struct {
	name    string
	entries int
	only    core.ThinStateDiff
}

func sections(d *core.ThinStateDiff) []section {
	storageWrites := 0
	for _, diff := range d.StorageDiffs.All() {
		storageWrites += diff.Len()
	}

	return []section{
		{"deployed_contracts", d.DeployedContracts.Len(), core.ThinStateDiff{DeployedContracts: d.DeployedContracts}},
		{"storage_diffs", storageWrites, core.ThinStateDiff{StorageDiffs: d.StorageDiffs}},
		{"declared_classes", d.DeclaredClasses.Len(), core.ThinStateDiff{DeclaredClasses: d.DeclaredClasses}},
		{"deprecated_declared_classes", len(d.DeprecatedDeclaredClasses), core.ThinStateDiff{
			DeprecatedDeclaredClasses: d.DeprecatedDeclaredClasses,
		}},
		{"nonces", d.Nonces.Len(), core.ThinStateDiff{Nonces: d.Nonces}},
		{"replaced_classes", d.ReplacedClasses.Len(), core.ThinStateDiff{ReplacedClasses: d.ReplacedClasses}},
	}
}

func InspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the entries and encoded size of each section of a thin state diff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			encoded, err := readEncoded(cmd)
			if err != nil {
				return err
			}

			var diff core.ThinStateDiff
			if err = compact.Unmarshal(encoded, &diff, a.cfg.DecodeOptions()...); err != nil {
				return fmt.Errorf("decode thin state diff: %w", err)
			}

			empty := len(compact.Marshal(new(core.ThinStateDiff)))
			items := [][]string{}
			for _, s := range sections(&diff) {
				size := len(compact.Marshal(&s.only)) - empty
				items = append(items, []string{
					s.name,
					humanize.Comma(int64(s.entries)),
					humanize.Bytes(uint64(size)),
				})
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Section", "Entries", "Size"})
			table.AppendBulk(items)
			table.SetFooter([]string{"Total", humanize.Comma(int64(diff.Len())), humanize.Bytes(uint64(len(encoded)))})
			table.Render()
			return nil
		},
	}
	addEncodedFlags(cmd)
	return cmd
}
