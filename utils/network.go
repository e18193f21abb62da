package utils

import (
	"encoding"
	"encoding/json"
	"errors"
	"strings"

	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/spf13/pflag"
)

var ErrUnknownNetwork = errors.New("unknown network (known: mainnet, sepolia, sepolia-integration)")

// Network selects the chain whose sequencer signed the blocks being verified.
type Network int

// The following are necessary for Cobra and Viper, respectively, to unmarshal network
// CLI/config parameters properly.
var (
	_ pflag.Value              = (*Network)(nil)
	_ encoding.TextUnmarshaler = (*Network)(nil)
)

const (
	Mainnet Network = iota + 1
	Sepolia
	SepoliaIntegration
)

// Published sequencer public keys (feeder gateway get_public_key).
var sequencerKeys = map[Network]string{
	Mainnet:            "0x48253ff2c3bed7af18bde0b611b083b39445959102d4947c51c4db6aa4f4e58",
	Sepolia:            "0x1252b6bce1351844c677869c6327e80eae1535755b611c66b8f46e595b40eea",
	SepoliaIntegration: "0x4e4856eb36dbd5f4a7dca29f7bb5232974ef1fb7eb5b597c58077174c294da1",
}

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Sepolia:
		return "sepolia"
	case SepoliaIntegration:
		return "sepolia-integration"
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
}

// Known reports whether n is one of the declared networks.
func (n Network) Known() bool {
	_, ok := sequencerKeys[n]
	return ok
}

func (n Network) MarshalYAML() (interface{}, error) {
	return n.String(), nil
}

func (n *Network) MarshalJSON() ([]byte, error) {
	return json.RawMessage(`"` + n.String() + `"`), nil
}

func (n *Network) Set(s string) error {
	switch strings.ToLower(s) {
	case "mainnet":
		*n = Mainnet
	case "sepolia":
		*n = Sepolia
	case "sepolia_integration", "sepolia-integration":
		*n = SepoliaIntegration
	default:
		return ErrUnknownNetwork
	}
	return nil
}

func (n *Network) Type() string {
	return "Network"
}

func (n *Network) UnmarshalText(text []byte) error {
	return n.Set(string(text))
}

func (n Network) ChainIDString() string {
	switch n {
	case Mainnet:
		return "SN_MAIN"
	case Sepolia:
		return "SN_SEPOLIA"
	case SepoliaIntegration:
		return "SN_INTEGRATION_SEPOLIA"
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
}

// ChainID is the chain id string read as a big-endian felt.
func (n Network) ChainID() felt.Felt {
	return felt.FromBytes([]byte(n.ChainIDString()))
}

// SequencerPublicKey returns the x coordinate of the key the network's sequencer signs blocks with.
func (n Network) SequencerPublicKey() felt.Felt {
	key, ok := sequencerKeys[n]
	if !ok {
		// Should not happen.
		panic(ErrUnknownNetwork)
	}

	var f felt.Felt
	if _, err := f.SetString(key); err != nil {
		panic(err)
	}
	return f
}
