package core_test

import (
	"testing"

	"github.com/NethermindEth/starknet-api/core"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(v uint64) felt.Address       { return felt.Address(felt.FromUint64(v)) }
func classHash(v uint64) felt.ClassHash { return felt.ClassHash(felt.FromUint64(v)) }
func storageKey(v uint64) felt.StorageKey {
	return felt.StorageKey(felt.FromUint64(v))
}

func storageDiff(kv ...uint64) core.StorageDiff {
	var diff core.StorageDiff
	for i := 0; i+1 < len(kv); i += 2 {
		diff.Put(storageKey(kv[i]), felt.FromUint64(kv[i+1]))
	}
	return diff
}

func thinStateDiff() core.ThinStateDiff {
	var diff core.ThinStateDiff
	diff.DeployedContracts.Put(addr(1), classHash(2))
	diff.DeployedContracts.Put(addr(3), classHash(4))
	diff.StorageDiffs.Put(addr(13), storageDiff(9, 1, 11, 12))
	diff.StorageDiffs.Put(addr(18), storageDiff(16, 17, 14, 15))
	diff.DeclaredClasses.Put(classHash(22), felt.CasmClassHash(felt.FromUint64(23)))
	diff.DeclaredClasses.Put(classHash(20), felt.CasmClassHash(felt.FromUint64(21)))
	diff.DeprecatedDeclaredClasses = []felt.ClassHash{classHash(24)}
	diff.Nonces.Put(addr(5), felt.FromUint64(6))
	diff.Nonces.Put(addr(7), felt.FromUint64(8))
	diff.ReplacedClasses.Put(addr(19), classHash(20))
	diff.ReplacedClasses.Put(addr(21), classHash(22))
	return diff
}

func TestThinStateDiffCompact(t *testing.T) {
	diff := thinStateDiff()
	require.NoError(t, diff.Validate())
	assert.Equal(t, 2+4+2+1+2+2, diff.Len())

	encoded := compact.Marshal(&diff)

	var decoded core.ThinStateDiff
	require.NoError(t, compact.Unmarshal(encoded, &decoded))
	assert.Equal(t, diff, decoded)
	assert.Equal(t, encoded, compact.Marshal(&decoded))

	inner, ok := decoded.StorageDiffs.Get(addr(18))
	require.True(t, ok)
	assert.Equal(t, []felt.StorageKey{storageKey(16), storageKey(14)}, inner.Keys())

	for _, profile := range []compact.Profile{compact.Hosted, compact.Constrained} {
		t.Run(profile.String(), func(t *testing.T) {
			var got core.ThinStateDiff
			require.NoError(t, compact.Unmarshal(encoded, &got, compact.WithProfile(profile)))
			assert.Equal(t, diff, got)
		})
	}
}

func TestThinStateDiffLayout(t *testing.T) {
	var diff core.ThinStateDiff
	diff.Nonces.Put(addr(5), felt.FromUint64(6))

	var w compact.Writer
	w.WriteLen(0) // deployed contracts
	w.WriteLen(0) // storage diffs
	w.WriteLen(0) // declared classes
	w.WriteLen(0) // deprecated declared classes
	w.WriteLen(1) // nonces
	compact.WriteFeltLike(&w, addr(5))
	w.WriteFelt(felt.FromUint64(6))
	w.WriteLen(0) // replaced classes

	assert.Equal(t, w.Bytes(), compact.Marshal(&diff))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, compact.Marshal(&core.ThinStateDiff{}))

	var empty core.ThinStateDiff
	require.NoError(t, compact.Unmarshal([]byte{0, 0, 0, 0, 0, 0}, &empty))
	assert.True(t, empty.IsEmpty())
}

func TestThinStateDiffDecodeErrors(t *testing.T) {
	encoded := compact.Marshal(new(core.ThinStateDiff))

	t.Run("truncated", func(t *testing.T) {
		var diff core.ThinStateDiff
		assert.ErrorIs(t, compact.Unmarshal(encoded[:5], &diff), compact.ErrTruncated)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		var diff core.ThinStateDiff
		assert.ErrorIs(t, compact.Unmarshal(append(encoded, 0), &diff), compact.ErrTrailingBytes)
	})

	t.Run("address out of range", func(t *testing.T) {
		var w compact.Writer
		w.WriteLen(0)
		w.WriteLen(1)
		w.WriteFelt(*utils.HexToFelt(t, "0x800000000000000000000000000000000000000000000000000000000000000"))

		var diff core.ThinStateDiff
		err := compact.Unmarshal(w.Bytes(), &diff)
		require.ErrorIs(t, err, compact.ErrOutOfRange)

		var rangeErr *compact.RangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, "storage_diffs[0]", rangeErr.Field)
		assert.Equal(t, "0x800000000000000000000000000000000000000000000000000000000000000", rangeErr.Value)
	})

	t.Run("storage value not in the field", func(t *testing.T) {
		var w compact.Writer
		w.WriteLen(0)
		w.WriteLen(1)
		compact.WriteFeltLike(&w, addr(1))
		w.WriteLen(1)
		compact.WriteFeltLike(&w, storageKey(2))
		w.WriteRaw(make([]byte, 32))
		b := w.Bytes()
		for i := len(b) - 32; i < len(b); i++ {
			b[i] = 0xff
		}

		var diff core.ThinStateDiff
		err := compact.Unmarshal(b, &diff)
		require.ErrorIs(t, err, compact.ErrOutOfRange)

		var rangeErr *compact.RangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, "storage_diffs[0][0].value", rangeErr.Field)
	})
}

func TestThinStateDiffJSON(t *testing.T) {
	diff := thinStateDiff()

	out, err := json.Marshal(diff)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"deployed_contracts": {"0x1": "0x2", "0x3": "0x4"},
		"storage_diffs": {"0xd": {"0x9": "0x1", "0xb": "0xc"}, "0x12": {"0x10": "0x11", "0xe": "0xf"}},
		"declared_classes": {"0x16": "0x17", "0x14": "0x15"},
		"deprecated_declared_classes": ["0x18"],
		"nonces": {"0x5": "0x6", "0x7": "0x8"},
		"replaced_classes": {"0x13": "0x14", "0x15": "0x16"}
	}`, string(out))

	var decoded core.ThinStateDiff
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, diff, decoded)
}

func fullStateDiff(t *testing.T) core.StateDiff {
	t.Helper()

	var diff core.StateDiff
	diff.DeployedContracts.Put(addr(1), classHash(2))
	diff.DeployedContracts.Put(addr(3), classHash(4))
	diff.StorageDiffs.Put(addr(13), storageDiff(9, 1, 11, 12))
	diff.DeclaredClasses.Put(classHash(30), core.DeclaredClass{
		CompiledClassHash: felt.CasmClassHash(felt.FromUint64(31)),
		Class:             sierraClass(t),
	})
	diff.DeclaredClasses.Put(classHash(28), core.DeclaredClass{
		CompiledClassHash: felt.CasmClassHash(felt.FromUint64(29)),
		Class:             core.ContractClass{ABI: "[]"},
	})
	diff.DeprecatedDeclaredClasses.Put(classHash(40), deprecatedClass(t))
	diff.DeprecatedDeclaredClasses.Put(classHash(26), core.DeprecatedContractClass{})
	diff.Nonces.Put(addr(5), felt.FromUint64(6))
	diff.ReplacedClasses.Put(addr(19), classHash(20))
	return diff
}

func TestNewThinStateDiff(t *testing.T) {
	diff := fullStateDiff(t)
	require.NoError(t, diff.Validate())

	declaredKeys := diff.DeclaredClasses.Keys()
	deprecatedKeys := diff.DeprecatedDeclaredClasses.Keys()
	deployed := diff.DeployedContracts
	storage := diff.StorageDiffs
	nonces := diff.Nonces
	replaced := diff.ReplacedClasses
	firstClass, _ := diff.DeclaredClasses.Get(classHash(30))
	firstDeprecated, _ := diff.DeprecatedDeclaredClasses.Get(classHash(40))

	thin, declared, deprecated := core.NewThinStateDiff(diff)

	t.Run("declared classes keep their order", func(t *testing.T) {
		assert.Equal(t, declaredKeys, thin.DeclaredClasses.Keys())
		assert.Equal(t, declaredKeys, declared.Keys())
		assert.Equal(t, []felt.CasmClassHash{
			felt.CasmClassHash(felt.FromUint64(31)),
			felt.CasmClassHash(felt.FromUint64(29)),
		}, thin.DeclaredClasses.Values())

		body, ok := declared.Get(classHash(30))
		require.True(t, ok)
		assert.Equal(t, firstClass.Class, body)
	})

	t.Run("deprecated classes keep their order", func(t *testing.T) {
		assert.Equal(t, deprecatedKeys, thin.DeprecatedDeclaredClasses)
		assert.Equal(t, deprecatedKeys, deprecated.Keys())

		body, ok := deprecated.Get(classHash(40))
		require.True(t, ok)
		assert.Equal(t, firstDeprecated, body)
	})

	t.Run("other sections are moved unchanged", func(t *testing.T) {
		assert.Equal(t, deployed, thin.DeployedContracts)
		assert.Equal(t, storage, thin.StorageDiffs)
		assert.Equal(t, nonces, thin.Nonces)
		assert.Equal(t, replaced, thin.ReplacedClasses)
	})

	t.Run("disjointness is preserved", func(t *testing.T) {
		require.NoError(t, thin.Validate())
		for _, h := range thin.DeprecatedDeclaredClasses {
			assert.False(t, thin.DeclaredClasses.Has(h))
		}
	})

	t.Run("empty diff", func(t *testing.T) {
		thin, declared, deprecated := core.NewThinStateDiff(core.StateDiff{})
		assert.Equal(t, core.ThinStateDiff{}, thin)
		assert.Equal(t, 0, declared.Len())
		assert.Equal(t, 0, deprecated.Len())
		assert.Equal(t, thin, core.ThinStateDiffFrom(core.StateDiff{}))
	})
}

func TestStateDiffCompact(t *testing.T) {
	diff := fullStateDiff(t)
	encoded := compact.Marshal(&diff)

	var decoded core.StateDiff
	require.NoError(t, compact.Unmarshal(encoded, &decoded))
	assert.Equal(t, encoded, compact.Marshal(&decoded))
	assert.Equal(t, diff.DeclaredClasses.Keys(), decoded.DeclaredClasses.Keys())
	assert.Equal(t, diff.DeprecatedDeclaredClasses.Keys(), decoded.DeprecatedDeclaredClasses.Keys())

	// the thin diff of a decoded diff encodes like the thin diff of the original
	assert.Equal(t, compact.Marshal(utils.HeapPtr(core.ThinStateDiffFrom(diff))),
		compact.Marshal(utils.HeapPtr(core.ThinStateDiffFrom(decoded))))
}

func TestStateDiffValidate(t *testing.T) {
	t.Run("unsorted addresses", func(t *testing.T) {
		var diff core.StateDiff
		diff.Nonces.Put(addr(7), felt.FromUint64(1))
		diff.Nonces.Put(addr(5), felt.FromUint64(1))

		err := diff.Validate()
		require.ErrorIs(t, err, core.ErrUnsortedAddresses)
		assert.Contains(t, err.Error(), "nonces")
	})

	t.Run("repeated address in thin diff", func(t *testing.T) {
		diff := thinStateDiff()
		diff.ReplacedClasses.Put(addr(19), classHash(1))
		require.NoError(t, diff.Validate())

		var deployed core.ThinStateDiff
		deployed.DeployedContracts.Put(addr(3), classHash(1))
		deployed.DeployedContracts.Put(addr(2), classHash(1))
		assert.ErrorIs(t, deployed.Validate(), core.ErrUnsortedAddresses)
	})

	t.Run("class declared twice", func(t *testing.T) {
		diff := fullStateDiff(t)
		diff.DeprecatedDeclaredClasses.Put(classHash(30), core.DeprecatedContractClass{})
		assert.ErrorIs(t, diff.Validate(), core.ErrOverlappingDeclarations)

		thin := core.ThinStateDiffFrom(diff)
		assert.ErrorIs(t, thin.Validate(), core.ErrOverlappingDeclarations)
	})
}

func TestStateDiffJSON(t *testing.T) {
	diff := fullStateDiff(t)

	out, err := json.Marshal(diff)
	require.NoError(t, err)

	var decoded core.StateDiff
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, diff.DeclaredClasses, decoded.DeclaredClasses)
	assert.Equal(t, diff.DeprecatedDeclaredClasses.Keys(), decoded.DeprecatedDeclaredClasses.Keys())
	assert.Equal(t, diff.StorageDiffs, decoded.StorageDiffs)
}

func TestStateUpdateReduce(t *testing.T) {
	update := core.StateUpdate{
		BlockHash: felt.Hash(felt.FromUint64(100)),
		NewRoot:   felt.Hash(felt.FromUint64(101)),
		OldRoot:   felt.Hash(felt.FromUint64(102)),
		StateDiff: fullStateDiff(t),
	}
	wantThin := core.ThinStateDiffFrom(fullStateDiff(t))

	thin, declared, deprecated := update.Reduce()
	assert.Equal(t, wantThin, thin.StateDiff)
	assert.Equal(t, felt.Hash(felt.FromUint64(100)), thin.BlockHash)
	assert.Equal(t, 2, declared.Len())
	assert.Equal(t, 2, deprecated.Len())

	encoded := compact.Marshal(&thin)
	assert.Equal(t, felt.Bytes*3+len(compact.Marshal(&wantThin)), len(encoded))

	var decoded core.ThinStateUpdate
	require.NoError(t, compact.Unmarshal(encoded, &decoded))
	assert.Equal(t, thin, decoded)

	t.Run("error path", func(t *testing.T) {
		var got core.ThinStateUpdate
		err := compact.Unmarshal(encoded[:felt.Bytes+3], &got)
		var se *compact.StructuralError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "new_root", se.Field)
	})

	t.Run("receiver is untouched on error", func(t *testing.T) {
		got := core.ThinStateUpdate{BlockHash: felt.Hash(felt.FromUint64(7))}
		want := got
		require.Error(t, compact.Unmarshal(encoded[:len(encoded)-1], &got))
		assert.Equal(t, want, got)
	})
}
