package main

import (
	"fmt"
	"runtime"

	"github.com/NethermindEth/starknet-api/core/crypto"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/NethermindEth/starknet-api/validator"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the effective configuration of a command: flag values over config file values over
// defaults.
type Config struct {
	LogLevel      utils.LogLevel  `mapstructure:"log-level" yaml:"log-level"`
	Colour        bool            `mapstructure:"colour" yaml:"colour"`
	DBPath        string          `mapstructure:"db-path" yaml:"db-path"`
	DBCacheSizeMB uint            `mapstructure:"db-cache-size" yaml:"db-cache-size" validate:"min=1"`
	Network       utils.Network   `mapstructure:"network" yaml:"network" validate:"network"`
	PublicKey     string          `mapstructure:"public-key" yaml:"public-key,omitempty" validate:"omitempty,felt"`
	Profile       compact.Profile `mapstructure:"profile" yaml:"profile"`
	MaxGoroutines int             `mapstructure:"max-goroutines" yaml:"max-goroutines" validate:"min=1,max=4096"`
}

// SequencerKey is the configured public key, or the network's sequencer key when none is set.
func (c *Config) SequencerKey() (crypto.PublicKey, error) {
	x := c.Network.SequencerPublicKey()
	if c.PublicKey != "" {
		if err := x.UnmarshalText([]byte(c.PublicKey)); err != nil {
			return crypto.PublicKey{}, fmt.Errorf("public key: %w", err)
		}
	}
	return crypto.NewPublicKey(&x), nil
}

func (c *Config) DecodeOptions() []compact.Option {
	return []compact.Option{compact.WithProfile(c.Profile)}
}

const (
	configF        = "config"
	logLevelF      = "log-level"
	colourF        = "colour"
	dbPathF        = "db-path"
	dbCacheSizeF   = "db-cache-size"
	networkF       = "network"
	publicKeyF     = "public-key"
	profileF       = "profile"
	maxGoroutinesF = "max-goroutines"

	defaultConfig      = ""
	defaultColour      = true
	defaultDBPath      = "starknet-api.db"
	defaultDBCacheSize = uint(1024)
	defaultPublicKey   = ""

	configFlagUsage    = "The YAML configuration file."
	logLevelFlagUsage  = "Options: debug, info, warn, error."
	colourUsage        = "Use `--colour=false` command to disable colourized outputs (ANSI Escape Codes)."
	dbPathUsage        = "Location of the database files."
	dbCacheSizeUsage   = "Determines the amount of memory (in megabytes) allocated for caching data in the database."
	networkUsage       = "Options: mainnet, sepolia, sepolia-integration. Selects the sequencer key signatures are verified against."
	publicKeyUsage     = "Sequencer public key (hex x coordinate). Overrides the network's key."
	profileUsage       = "Decode profile. Options: hosted, constrained. Constrained never pre-allocates and caps declared lengths."
	maxGoroutinesUsage = "Maximum number of goroutines verifying signatures concurrently."
)

var defaultMaxGoroutines = runtime.GOMAXPROCS(0)

func addConfigFlags(cmd *cobra.Command) {
	defaultLogLevel := utils.INFO
	defaultNetwork := utils.Mainnet
	defaultProfile := compact.Hosted

	flags := cmd.PersistentFlags()
	flags.String(configF, defaultConfig, configFlagUsage)
	flags.Var(&defaultLogLevel, logLevelF, logLevelFlagUsage)
	flags.Bool(colourF, defaultColour, colourUsage)
	flags.String(dbPathF, defaultDBPath, dbPathUsage)
	flags.Uint(dbCacheSizeF, defaultDBCacheSize, dbCacheSizeUsage)
	flags.Var(&defaultNetwork, networkF, networkUsage)
	flags.String(publicKeyF, defaultPublicKey, publicKeyUsage)
	flags.Var(&defaultProfile, profileF, profileUsage)
	flags.Int(maxGoroutinesF, defaultMaxGoroutines, maxGoroutinesUsage)
}

// loadConfig merges the config file named by --config with the flags of cmd and validates the
// result.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	cfgFile, err := cmd.Flags().GetString(configF)
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())); err != nil {
		return nil, err
	}

	if err := validator.Validator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
