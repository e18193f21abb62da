package main

import (
	"fmt"
	"io"
	"os"

	"github.com/NethermindEth/starknet-api/utils"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var Version string

// app carries what every subcommand needs once the configuration is loaded.
type app struct {
	cfg *Config
	log *utils.ZapLogger
}

func NewCmd() *cobra.Command {
	a := new(app)

	rootCmd := &cobra.Command{
		Use:           "starknet-api [command]",
		Short:         "Reduce, encode, verify and store Starknet state updates.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if a.cfg, err = loadConfig(cmd); err != nil {
				return err
			}
			a.log, err = utils.NewZapLogger(&a.cfg.LogLevel, a.cfg.Colour)
			return err
		},
	}
	addConfigFlags(rootCmd)

	rootCmd.AddCommand(
		ConfigCmd(a),
		ReduceCmd(a),
		DecodeCmd(a),
		InspectCmd(a),
		VerifyCmd(a),
		DBCmd(a),
	)
	return rootCmd
}

func ConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// readInput returns the content of path, or of stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
