package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/NethermindEth/starknet-api/core"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

const (
	inF   = "in"
	hexF  = "hex"
	kindF = "kind"

	inUsage   = "Input file, - reads stdin."
	hexUsage  = "0x-prefixed hex of the encoded value. Takes precedence over --in."
	kindUsage = "Kind of the encoded value. Options: thin-state-diff, state-diff, thin-state-update, class, deprecated-class."
)

var kinds = map[string]func() compact.Decodable{
	"thin-state-diff":   func() compact.Decodable { return new(core.ThinStateDiff) },
	"state-diff":        func() compact.Decodable { return new(core.StateDiff) },
	"thin-state-update": func() compact.Decodable { return new(core.ThinStateUpdate) },
	"class":             func() compact.Decodable { return new(core.ContractClass) },
	"deprecated-class":  func() compact.Decodable { return new(core.DeprecatedContractClass) },
}

type reduction struct {
	ThinStateDiff             string           `json:"thin_state_diff"`
	Size                      int              `json:"size"`
	Entries                   int              `json:"entries"`
	DeclaredClasses           []felt.ClassHash `json:"declared_classes"`
	DeprecatedDeclaredClasses []felt.ClassHash `json:"deprecated_declared_classes"`
}

func ReduceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reduce",
		Short: "Reduce a JSON state diff to its thin compact encoding",
		Long: `This command reads a state diff with class bodies, checks its ordering, strips the class
bodies and prints the compact encoding of the thin diff with the hashes of the declared classes.`,
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

			var diff core.StateDiff
			if err = json.Unmarshal(data, &diff); err != nil {
				return fmt.Errorf("parse state diff: %w", err)
			}
			if err = diff.Validate(); err != nil {
				return err
			}

			thin, declared, deprecated := core.NewThinStateDiff(diff)
			encoded := compact.Marshal(&thin)
			a.log.Debugw("Reduced state diff", "entries", thin.Len(), "size", len(encoded))

			return printJSON(cmd, reduction{
				ThinStateDiff:             "0x" + hex.EncodeToString(encoded),
				Size:                      len(encoded),
				Entries:                   thin.Len(),
				DeclaredClasses:           declared.Keys(),
				DeprecatedDeclaredClasses: deprecated.Keys(),
			})
		},
	}
	cmd.Flags().String(inF, "-", inUsage)
	return cmd
}

func DecodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a compact encoding and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := cmd.Flags().GetString(kindF)
			if err != nil {
				return err
			}
			newValue, ok := kinds[kind]
			if !ok {
				return fmt.Errorf("unknown kind %q (known: %s)", kind, strings.Join(kindNames(), ", "))
			}

			encoded, err := readEncoded(cmd)
			if err != nil {
				return err
			}

			v := newValue()
			if err = compact.Unmarshal(encoded, v, a.cfg.DecodeOptions()...); err != nil {
				return fmt.Errorf("decode %s: %w", kind, err)
			}
			a.log.Debugw("Decoded value", "kind", kind, "size", len(encoded), "profile", a.cfg.Profile)
			return printJSON(cmd, v)
		},
	}
	cmd.Flags().String(kindF, "thin-state-diff", kindUsage)
	addEncodedFlags(cmd)
	return cmd
}

func kindNames() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func addEncodedFlags(cmd *cobra.Command) {
	cmd.Flags().String(hexF, "", hexUsage)
	cmd.Flags().String(inF, "-", inUsage)
}

// readEncoded returns the bytes given by --hex, or the hex text read from --in.
func readEncoded(cmd *cobra.Command) ([]byte, error) {
	text, err := cmd.Flags().GetString(hexF)
	if err != nil {
		return nil, err
	}
	if text == "" {
		path, err := cmd.Flags().GetString(inF)
		if err != nil {
			return nil, err
		}
		data, err := readInput(cmd, path)
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	return decodeHex(text)
}

var errEmptyInput = errors.New("no encoded input")

func decodeHex(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	if text == "" {
		return nil, errEmptyInput
	}
	b, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return b, nil
}
