package core

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/NethermindEth/starknet-api/utils"
)

var (
	ErrUnsortedAddresses       = errors.New("addresses are not strictly increasing")
	ErrOverlappingDeclarations = errors.New("class declared as both Sierra and Cairo 0")
)

// StorageDiff maps the storage keys a block wrote to their new values.
type StorageDiff = utils.OrderedMap[felt.StorageKey, felt.Felt]

// DeclaredClass is a Sierra class declared in a block together with the hash of its compiled form.
type DeclaredClass struct {
	CompiledClassHash felt.CasmClassHash `json:"compiled_class_hash"`
	Class             ContractClass      `json:"contract_class"`
}

// DeclaredClasses holds the bodies of the Sierra classes declared in a block, by class hash.
type DeclaredClasses = utils.OrderedMap[felt.ClassHash, ContractClass]

// DeprecatedDeclaredClasses holds the bodies of the Cairo 0 classes declared in a block, by class hash.
type DeprecatedDeclaredClasses = utils.OrderedMap[felt.ClassHash, DeprecatedContractClass]

// StateDiff is every state change of a block, class bodies included.
//
// Every map keyed by address must iterate in strictly increasing address order and the two
// declared class maps must have disjoint keys. Producers guarantee both; the codecs and the reducer
// trust them, Validate checks them.
type StateDiff struct {
	DeployedContracts         utils.OrderedMap[felt.Address, felt.ClassHash]  `json:"deployed_contracts"`
	StorageDiffs              utils.OrderedMap[felt.Address, StorageDiff]     `json:"storage_diffs"`
	DeclaredClasses           utils.OrderedMap[felt.ClassHash, DeclaredClass] `json:"declared_classes"`
	DeprecatedDeclaredClasses DeprecatedDeclaredClasses                       `json:"deprecated_declared_classes"`
	Nonces                    utils.OrderedMap[felt.Address, felt.Felt]       `json:"nonces"`
	ReplacedClasses           utils.OrderedMap[felt.Address, felt.ClassHash]  `json:"replaced_classes"`
}

// ThinStateDiff is a StateDiff without class bodies: Sierra declarations keep their compiled class
// hash and Cairo 0 declarations only their class hash. It is obtained by reducing a StateDiff or
// by decoding one.
type ThinStateDiff struct {
	DeployedContracts         utils.OrderedMap[felt.Address, felt.ClassHash]       `json:"deployed_contracts"`
	StorageDiffs              utils.OrderedMap[felt.Address, StorageDiff]          `json:"storage_diffs"`
	DeclaredClasses           utils.OrderedMap[felt.ClassHash, felt.CasmClassHash] `json:"declared_classes"`
	DeprecatedDeclaredClasses []felt.ClassHash                                     `json:"deprecated_declared_classes"`
	Nonces                    utils.OrderedMap[felt.Address, felt.Felt]            `json:"nonces"`
	ReplacedClasses           utils.OrderedMap[felt.Address, felt.ClassHash]       `json:"replaced_classes"`
}

// NewThinStateDiff splits diff into its thin form and the bodies of the classes it declares.
// Map orders are kept, nothing is deduplicated or re-validated. diff must not be used afterwards,
// its maps are shared with the results.
func NewThinStateDiff(diff StateDiff) (ThinStateDiff, DeclaredClasses, DeprecatedDeclaredClasses) {
	thin := ThinStateDiff{
		DeployedContracts: diff.DeployedContracts,
		StorageDiffs:      diff.StorageDiffs,
		Nonces:            diff.Nonces,
		ReplacedClasses:   diff.ReplacedClasses,
	}

	var declared DeclaredClasses
	if n := diff.DeclaredClasses.Len(); n > 0 {
		thin.DeclaredClasses = *utils.NewOrderedMap[felt.ClassHash, felt.CasmClassHash](n)
		declared = *utils.NewOrderedMap[felt.ClassHash, ContractClass](n)
	}
	for classHash, class := range diff.DeclaredClasses.All() {
		thin.DeclaredClasses.Put(classHash, class.CompiledClassHash)
		declared.Put(classHash, class.Class)
	}

	if diff.DeprecatedDeclaredClasses.Len() > 0 {
		thin.DeprecatedDeclaredClasses = diff.DeprecatedDeclaredClasses.Keys()
	}
	return thin, declared, diff.DeprecatedDeclaredClasses
}

// ThinStateDiffFrom reduces diff and drops the class bodies.
func ThinStateDiffFrom(diff StateDiff) ThinStateDiff {
	thin, _, _ := NewThinStateDiff(diff)
	return thin
}

func (d *StateDiff) Validate() error {
	if err := validateAddressOrder(d.DeployedContracts.Keys(), d.StorageDiffs.Keys(),
		d.Nonces.Keys(), d.ReplacedClasses.Keys()); err != nil {
		return err
	}
	for classHash := range d.DeprecatedDeclaredClasses.All() {
		if d.DeclaredClasses.Has(classHash) {
			return fmt.Errorf("%w: %s", ErrOverlappingDeclarations, classHash)
		}
	}
	return nil
}

// Validate checks the address order and that no class hash is declared both ways.
func (d *ThinStateDiff) Validate() error {
	if err := validateAddressOrder(d.DeployedContracts.Keys(), d.StorageDiffs.Keys(),
		d.Nonces.Keys(), d.ReplacedClasses.Keys()); err != nil {
		return err
	}
	for _, classHash := range d.DeprecatedDeclaredClasses {
		if d.DeclaredClasses.Has(classHash) {
			return fmt.Errorf("%w: %s", ErrOverlappingDeclarations, classHash)
		}
	}
	return nil
}

var addressSections = [...]string{"deployed_contracts", "storage_diffs", "nonces", "replaced_classes"}

func validateAddressOrder(sections ...[]felt.Address) error {
	for i, addresses := range sections {
		for j := 1; j < len(addresses); j++ {
			if !felt.Less(addresses[j-1], addresses[j]) {
				return fmt.Errorf("%s: %w: %s then %s", addressSections[i], ErrUnsortedAddresses,
					addresses[j-1], addresses[j])
			}
		}
	}
	return nil
}

// Len is the number of entries across all sections, storage writes counted one by one.
func (d *ThinStateDiff) Len() int {
	n := d.DeployedContracts.Len() + d.DeclaredClasses.Len() + len(d.DeprecatedDeclaredClasses) +
		d.Nonces.Len() + d.ReplacedClasses.Len()
	for _, diff := range d.StorageDiffs.All() {
		n += diff.Len()
	}
	return n
}

func (d *ThinStateDiff) IsEmpty() bool {
	return d.Len() == 0
}

func writeAddressToClassHash(w *compact.Writer, addr felt.Address, classHash felt.ClassHash) {
	compact.WriteFeltLike(w, addr)
	compact.WriteFeltLike(w, classHash)
}

func readAddressToClassHash(r *compact.Reader) (felt.Address, felt.ClassHash, error) {
	addr, err := readContractAddress(r)
	if err != nil {
		return addr, felt.ClassHash{}, err
	}
	classHash, err := compact.ReadFeltLike[felt.ClassHash](r)
	return addr, classHash, compact.Field("class_hash", err)
}

func writeStorageDiff(w *compact.Writer, addr felt.Address, diff StorageDiff) {
	compact.WriteFeltLike(w, addr)
	compact.WriteMap(w, &diff, func(w *compact.Writer, key felt.StorageKey, value felt.Felt) {
		compact.WriteFeltLike(w, key)
		w.WriteFelt(value)
	})
}

func readStorageDiff(r *compact.Reader) (felt.Address, StorageDiff, error) {
	addr, err := readContractAddress(r)
	if err != nil {
		return addr, StorageDiff{}, err
	}
	diff, err := compact.ReadMap(r, func(r *compact.Reader) (felt.StorageKey, felt.Felt, error) {
		key, err := readStorageKey(r)
		if err != nil {
			return key, felt.Zero, compact.Field("key", err)
		}
		value, err := r.ReadFelt()
		return key, value, compact.Field("value", err)
	})
	return addr, diff, err
}

func writeNonce(w *compact.Writer, addr felt.Address, nonce felt.Felt) {
	compact.WriteFeltLike(w, addr)
	w.WriteFelt(nonce)
}

func readNonce(r *compact.Reader) (felt.Address, felt.Felt, error) {
	addr, err := readContractAddress(r)
	if err != nil {
		return addr, felt.Zero, err
	}
	nonce, err := r.ReadFelt()
	return addr, nonce, compact.Field("nonce", err)
}

// EncodeCompact writes the six sections in order: deployed contracts, storage diffs, declared
// classes, deprecated declared classes, nonces and replaced classes.
func (d *ThinStateDiff) EncodeCompact(w *compact.Writer) {
	compact.WriteMap(w, &d.DeployedContracts, writeAddressToClassHash)
	compact.WriteMap(w, &d.StorageDiffs, writeStorageDiff)
	compact.WriteMap(w, &d.DeclaredClasses, func(w *compact.Writer, classHash felt.ClassHash,
		compiled felt.CasmClassHash,
	) {
		compact.WriteFeltLike(w, classHash)
		compact.WriteFeltLike(w, compiled)
	})
	compact.WriteSequence(w, d.DeprecatedDeclaredClasses, compact.WriteFeltLike[felt.ClassHash])
	compact.WriteMap(w, &d.Nonces, writeNonce)
	compact.WriteMap(w, &d.ReplacedClasses, writeAddressToClassHash)
}

func (d *ThinStateDiff) DecodeCompact(r *compact.Reader) error {
	var (
		out ThinStateDiff
		err error
	)
	if out.DeployedContracts, err = compact.ReadMap(r, readAddressToClassHash); err != nil {
		return compact.Field("deployed_contracts", err)
	}
	if out.StorageDiffs, err = compact.ReadMap(r, readStorageDiff); err != nil {
		return compact.Field("storage_diffs", err)
	}
	out.DeclaredClasses, err = compact.ReadMap(r, func(r *compact.Reader) (felt.ClassHash, felt.CasmClassHash, error) {
		classHash, err := compact.ReadFeltLike[felt.ClassHash](r)
		if err != nil {
			return classHash, felt.CasmClassHash{}, err
		}
		compiled, err := compact.ReadFeltLike[felt.CasmClassHash](r)
		return classHash, compiled, compact.Field("compiled_class_hash", err)
	})
	if err != nil {
		return compact.Field("declared_classes", err)
	}
	if out.DeprecatedDeclaredClasses, err = compact.ReadSequence(r, compact.ReadFeltLike[felt.ClassHash]); err != nil {
		return compact.Field("deprecated_declared_classes", err)
	}
	if len(out.DeprecatedDeclaredClasses) == 0 {
		out.DeprecatedDeclaredClasses = nil
	}
	if out.Nonces, err = compact.ReadMap(r, readNonce); err != nil {
		return compact.Field("nonces", err)
	}
	if out.ReplacedClasses, err = compact.ReadMap(r, readAddressToClassHash); err != nil {
		return compact.Field("replaced_classes", err)
	}

	*d = out
	return nil
}

// EncodeCompact uses the ThinStateDiff layout with class bodies following their hashes.
func (d *StateDiff) EncodeCompact(w *compact.Writer) {
	compact.WriteMap(w, &d.DeployedContracts, writeAddressToClassHash)
	compact.WriteMap(w, &d.StorageDiffs, writeStorageDiff)
	compact.WriteMap(w, &d.DeclaredClasses, func(w *compact.Writer, classHash felt.ClassHash, class DeclaredClass) {
		compact.WriteFeltLike(w, classHash)
		compact.WriteFeltLike(w, class.CompiledClassHash)
		class.Class.EncodeCompact(w)
	})
	compact.WriteMap(w, &d.DeprecatedDeclaredClasses, func(w *compact.Writer, classHash felt.ClassHash,
		class DeprecatedContractClass,
	) {
		compact.WriteFeltLike(w, classHash)
		class.EncodeCompact(w)
	})
	compact.WriteMap(w, &d.Nonces, writeNonce)
	compact.WriteMap(w, &d.ReplacedClasses, writeAddressToClassHash)
}

func (d *StateDiff) DecodeCompact(r *compact.Reader) error {
	var (
		out StateDiff
		err error
	)
	if out.DeployedContracts, err = compact.ReadMap(r, readAddressToClassHash); err != nil {
		return compact.Field("deployed_contracts", err)
	}
	if out.StorageDiffs, err = compact.ReadMap(r, readStorageDiff); err != nil {
		return compact.Field("storage_diffs", err)
	}
	out.DeclaredClasses, err = compact.ReadMap(r, func(r *compact.Reader) (felt.ClassHash, DeclaredClass, error) {
		var class DeclaredClass
		classHash, err := compact.ReadFeltLike[felt.ClassHash](r)
		if err != nil {
			return classHash, class, err
		}
		if class.CompiledClassHash, err = compact.ReadFeltLike[felt.CasmClassHash](r); err != nil {
			return classHash, class, compact.Field("compiled_class_hash", err)
		}
		if err = class.Class.DecodeCompact(r); err != nil {
			return classHash, class, compact.Field("contract_class", err)
		}
		return classHash, class, nil
	})
	if err != nil {
		return compact.Field("declared_classes", err)
	}
	out.DeprecatedDeclaredClasses, err = compact.ReadMap(r, func(r *compact.Reader) (felt.ClassHash,
		DeprecatedContractClass, error,
	) {
		var class DeprecatedContractClass
		classHash, err := compact.ReadFeltLike[felt.ClassHash](r)
		if err != nil {
			return classHash, class, err
		}
		if err = class.DecodeCompact(r); err != nil {
			return classHash, class, err
		}
		return classHash, class, nil
	})
	if err != nil {
		return compact.Field("deprecated_declared_classes", err)
	}
	if out.Nonces, err = compact.ReadMap(r, readNonce); err != nil {
		return compact.Field("nonces", err)
	}
	if out.ReplacedClasses, err = compact.ReadMap(r, readAddressToClassHash); err != nil {
		return compact.Field("replaced_classes", err)
	}

	*d = out
	return nil
}
