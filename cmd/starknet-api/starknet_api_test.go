package main_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/NethermindEth/starknet-api/blockchain"
	starknetapi "github.com/NethermindEth/starknet-api/cmd/starknet-api"
	"github.com/NethermindEth/starknet-api/core"
	"github.com/NethermindEth/starknet-api/core/crypto"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	cmd := starknetapi.NewCmd()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(bytes.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level=error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigPrecedence(t *testing.T) {
	defaults := func() starknetapi.Config {
		return starknetapi.Config{
			LogLevel:      utils.ERROR,
			Colour:        true,
			DBPath:        "starknet-api.db",
			DBCacheSizeMB: 1024,
			Network:       utils.Mainnet,
			Profile:       compact.Hosted,
			MaxGoroutines: runtime.GOMAXPROCS(0),
		}
	}

	tests := map[string]struct {
		cfgFile string
		args    []string
		want    func(*starknetapi.Config)
	}{
		"default config": {
			want: func(*starknetapi.Config) {},
		},
		"config file only": {
			cfgFile: `network: sepolia
profile: constrained
max-goroutines: 3
db-path: /tmp/chain
colour: false
`,
			want: func(c *starknetapi.Config) {
				c.Network = utils.Sepolia
				c.Profile = compact.Constrained
				c.MaxGoroutines = 3
				c.DBPath = "/tmp/chain"
				c.Colour = false
			},
		},
		"flags only": {
			args: []string{"--network=sepolia-integration", "--db-cache-size=16", "--public-key=0x1234"},
			want: func(c *starknetapi.Config) {
				c.Network = utils.SepoliaIntegration
				c.DBCacheSizeMB = 16
				c.PublicKey = "0x1234"
			},
		},
		"flags override config file": {
			cfgFile: `network: sepolia
max-goroutines: 3
`,
			args: []string{"--network=mainnet", "--profile=constrained"},
			want: func(c *starknetapi.Config) {
				c.MaxGoroutines = 3
				c.Profile = compact.Constrained
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			args := []string{"config"}
			if test.cfgFile != "" {
				args = append(args, "--config", writeConfig(t, test.cfgFile))
			}

			out, err := execute(t, nil, append(args, test.args...)...)
			require.NoError(t, err)

			var got starknetapi.Config
			require.NoError(t, yaml.Unmarshal([]byte(out), &got))

			want := defaults()
			test.want(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := map[string]struct {
		cfgFile string
		args    []string
	}{
		"no goroutines":       {args: []string{"--max-goroutines=0"}},
		"unknown network":     {args: []string{"--network=goerli"}},
		"unknown profile":     {args: []string{"--profile=lavish"}},
		"bad public key":      {args: []string{"--public-key=0xnothex"}},
		"network in file":     {cfgFile: "network: goerli\n"},
		"log level in file":   {cfgFile: "log-level: loud\n"},
		"missing config":      {args: []string{"--config=/does/not/exist.yaml"}},
		"no db cache in file": {cfgFile: "db-cache-size: 0\n"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			args := []string{"config"}
			if test.cfgFile != "" {
				args = append(args, "--config", writeConfig(t, test.cfgFile))
			}
			_, err := execute(t, nil, append(args, test.args...)...)
			assert.Error(t, err)
		})
	}
}

func addr(v uint64) felt.Address { return felt.Address(felt.FromUint64(v)) }

func sampleDiff() core.StateDiff {
	var diff core.StateDiff
	diff.DeployedContracts.Put(addr(1), felt.ClassHash(felt.FromUint64(7)))
	diff.DeployedContracts.Put(addr(2), felt.ClassHash(felt.FromUint64(8)))

	var storage core.StorageDiff
	storage.Put(felt.StorageKey(felt.FromUint64(5)), felt.FromUint64(6))
	diff.StorageDiffs.Put(addr(1), storage)

	diff.DeclaredClasses.Put(felt.ClassHash(felt.FromUint64(10)), core.DeclaredClass{
		CompiledClassHash: felt.CasmClassHash(felt.FromUint64(11)),
		Class:             core.ContractClass{SierraProgram: []felt.Felt{felt.FromUint64(1)}, ABI: "[]"},
	})
	diff.Nonces.Put(addr(1), felt.FromUint64(1))
	return diff
}

func TestReduceDecodeInspect(t *testing.T) {
	input, err := json.Marshal(sampleDiff())
	require.NoError(t, err)

	out, err := execute(t, input, "reduce")
	require.NoError(t, err)

	var reduced struct {
		ThinStateDiff   string           `json:"thin_state_diff"`
		Size            int              `json:"size"`
		Entries         int              `json:"entries"`
		DeclaredClasses []felt.ClassHash `json:"declared_classes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reduced))

	thin := core.ThinStateDiffFrom(sampleDiff())
	encoded := compact.Marshal(&thin)
	assert.Equal(t, len(encoded), reduced.Size)
	assert.Equal(t, 5, reduced.Entries)
	assert.Equal(t, []felt.ClassHash{felt.ClassHash(felt.FromUint64(10))}, reduced.DeclaredClasses)

	t.Run("decode", func(t *testing.T) {
		for _, profile := range []string{"hosted", "constrained"} {
			out, err := execute(t, nil, "decode", "--kind=thin-state-diff", "--hex", reduced.ThinStateDiff,
				"--profile", profile)
			require.NoError(t, err)

			var decoded map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(out), &decoded))
			assert.JSONEq(t, `{"0x1":"0x7","0x2":"0x8"}`, string(decoded["deployed_contracts"]))
			assert.JSONEq(t, `{"0x1":{"0x5":"0x6"}}`, string(decoded["storage_diffs"]))
			assert.JSONEq(t, `{"0xa":"0xb"}`, string(decoded["declared_classes"]))
			assert.JSONEq(t, `{"0x1":"0x1"}`, string(decoded["nonces"]))
		}
	})

	t.Run("decode from stdin", func(t *testing.T) {
		_, err := execute(t, []byte(reduced.ThinStateDiff+"\n"), "decode")
		require.NoError(t, err)
	})

	t.Run("decode errors", func(t *testing.T) {
		_, err := execute(t, nil, "decode", "--kind=block", "--hex", reduced.ThinStateDiff)
		assert.ErrorContains(t, err, "unknown kind")

		_, err = execute(t, nil, "decode", "--hex", reduced.ThinStateDiff[:len(reduced.ThinStateDiff)-2])
		assert.ErrorIs(t, err, compact.ErrTruncated)

		_, err = execute(t, nil, "decode", "--hex", reduced.ThinStateDiff+"00")
		assert.ErrorIs(t, err, compact.ErrTrailingBytes)

		_, err = execute(t, nil, "decode", "--hex", "0xzz")
		assert.Error(t, err)

		_, err = execute(t, nil, "decode")
		assert.Error(t, err)
	})

	t.Run("inspect", func(t *testing.T) {
		out, err := execute(t, nil, "inspect", "--hex", reduced.ThinStateDiff)
		require.NoError(t, err)
		for _, section := range []string{"deployed_contracts", "storage_diffs", "declared_classes",
			"deprecated_declared_classes", "nonces", "replaced_classes", "TOTAL"} {
			assert.Contains(t, out, section)
		}
	})
}

func TestReduceRejectsUnorderedDiff(t *testing.T) {
	var diff core.StateDiff
	diff.Nonces.Put(addr(2), felt.FromUint64(1))
	diff.Nonces.Put(addr(1), felt.FromUint64(1))

	input, err := json.Marshal(diff)
	require.NoError(t, err)

	_, err = execute(t, input, "reduce")
	assert.ErrorIs(t, err, core.ErrUnsortedAddresses)
}

type signer struct {
	key    *crypto.PrivateKey
	pubKey string
}

func newSigner(t *testing.T) signer {
	t.Helper()

	key, err := crypto.GeneratePrivateKey(rand.Reader)
	require.NoError(t, err)
	pub := key.Public()
	x := pub.X()
	return signer{key: key, pubKey: x.String()}
}

func (s signer) sign(t *testing.T, blockHash, commitment felt.Hash) core.BlockSignature {
	t.Helper()

	msg := core.BlockSignatureMessage((*felt.Felt)(&blockHash), (*felt.Felt)(&commitment))
	sig, err := s.key.Sign(rand.Reader, msg)
	require.NoError(t, err)
	return core.BlockSignature(sig)
}

func hash(v uint64) felt.Hash { return felt.Hash(felt.FromUint64(v)) }

func TestVerify(t *testing.T) {
	seq := newSigner(t)
	blockHash, commitment := hash(100), hash(200)
	sig := seq.sign(t, blockHash, commitment)

	single := func(sig core.BlockSignature) []string {
		return []string{
			"verify", "--public-key", seq.pubKey,
			"--block-hash", blockHash.String(), "--commitment", commitment.String(),
			"--r", sig.R.String(), "--s", sig.S.String(),
		}
	}

	t.Run("valid signature", func(t *testing.T) {
		out, err := execute(t, nil, single(sig)...)
		require.NoError(t, err)
		assert.Contains(t, out, "is valid")
	})

	t.Run("signature of another block", func(t *testing.T) {
		other := seq.sign(t, hash(101), commitment)
		_, err := execute(t, nil, single(other)...)
		assert.ErrorIs(t, err, blockchain.ErrInvalidSignature)
	})

	t.Run("other sequencer", func(t *testing.T) {
		_, err := execute(t, nil, append(single(sig), "--public-key", newSigner(t).pubKey)...)
		assert.ErrorIs(t, err, blockchain.ErrInvalidSignature)
	})

	t.Run("malformed signature", func(t *testing.T) {
		_, err := execute(t, nil, single(core.BlockSignature{R: sig.R})...)
		var verr *crypto.VerificationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("incomplete flags", func(t *testing.T) {
		_, err := execute(t, nil, "verify", "--block-hash", blockHash.String())
		assert.Error(t, err)
	})

	t.Run("batch", func(t *testing.T) {
		blocks := []core.SignedBlock{
			{BlockHash: blockHash, StateDiffCommitment: commitment, Signature: sig},
			{BlockHash: hash(101), StateDiffCommitment: hash(201), Signature: seq.sign(t, hash(101), hash(201))},
		}
		input, err := json.Marshal(blocks)
		require.NoError(t, err)

		out, err := execute(t, input, "verify", "--batch=-", "--public-key", seq.pubKey, "--max-goroutines=2")
		require.NoError(t, err)
		assert.Contains(t, out, hash(101).String())

		blocks = append(blocks, core.SignedBlock{BlockHash: hash(102), StateDiffCommitment: hash(202), Signature: sig})
		input, err = json.Marshal(blocks)
		require.NoError(t, err)

		out, err = execute(t, input, "verify", "--batch=-", "--public-key", seq.pubKey)
		require.ErrorIs(t, err, blockchain.ErrInvalidSignature)
		assert.ErrorContains(t, err, "1 of 3 blocks")
		assert.Contains(t, out, "invalid")
	})
}

func genesis(t *testing.T, seq signer) starknetapi.StoreInput {
	header := &core.BlockHeader{
		BlockHash:           hash(1000),
		StateRoot:           hash(2000),
		StateDiffCommitment: utils.HeapPtr(hash(3000)),
		Timestamp:           1700000000,
		StarknetVersion:     "0.13.2",
	}
	update := &core.StateUpdate{BlockHash: header.BlockHash, NewRoot: header.StateRoot, StateDiff: sampleDiff()}
	sig := seq.sign(t, header.BlockHash, *header.StateDiffCommitment)
	return starknetapi.StoreInput{BlockHeader: header, StateUpdate: update, Signature: &sig}
}

func TestDBCmd(t *testing.T) {
	seq := newSigner(t)
	dbPath := t.TempDir()
	withDB := func(args ...string) []string {
		return append(args, "--db-path", dbPath, "--public-key", seq.pubKey, "--db-cache-size=8")
	}

	t.Run("empty database", func(t *testing.T) {
		_, err := execute(t, nil, withDB("db", "info")...)
		assert.Error(t, err)
	})

	t.Run("missing state update", func(t *testing.T) {
		_, err := execute(t, []byte(`{"block_header": {}}`), withDB("db", "store")...)
		assert.ErrorContains(t, err, "invalid input")
	})

	t.Run("signature of another sequencer", func(t *testing.T) {
		input, err := json.Marshal(genesis(t, newSigner(t)))
		require.NoError(t, err)

		_, err = execute(t, input, withDB("db", "store")...)
		assert.ErrorIs(t, err, blockchain.ErrInvalidSignature)
	})

	input, err := json.Marshal(genesis(t, seq))
	require.NoError(t, err)

	t.Run("store genesis", func(t *testing.T) {
		out, err := execute(t, input, withDB("db", "store")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Stored block 0")
	})

	t.Run("store twice", func(t *testing.T) {
		_, err := execute(t, input, withDB("db", "store")...)
		assert.Error(t, err)
	})

	t.Run("info", func(t *testing.T) {
		out, err := execute(t, nil, withDB("db", "info")...)
		require.NoError(t, err)

		var info starknetapi.DBInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, uint64(0), info.ChainHeight)
		assert.Equal(t, hash(1000), *info.LatestBlockHash)
		assert.Equal(t, hash(2000), *info.LatestStateRoot)
	})

	t.Run("show", func(t *testing.T) {
		for _, args := range [][]string{{"db", "show"}, {"db", "show", "--block-number=0"}} {
			out, err := execute(t, nil, withDB(args...)...)
			require.NoError(t, err)

			var shown struct {
				BlockHeader core.BlockHeader     `json:"block_header"`
				StateUpdate core.ThinStateUpdate `json:"state_update"`
				Signature   *core.BlockSignature `json:"signature"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &shown))
			assert.Equal(t, hash(1000), shown.BlockHeader.BlockHash)
			assert.Equal(t, hash(2000), shown.StateUpdate.NewRoot)
			assert.Equal(t, 5, shown.StateUpdate.StateDiff.Len())
			require.NotNil(t, shown.Signature)
		}

		_, err := execute(t, nil, withDB("db", "show", "--block-number=1")...)
		assert.Error(t, err)
	})
}
