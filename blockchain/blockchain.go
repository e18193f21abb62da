package blockchain

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/NethermindEth/starknet-api/core"
	"github.com/NethermindEth/starknet-api/core/crypto"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/db"
	"github.com/NethermindEth/starknet-api/encoder"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

const (
	lenOfByteSlice = 8

	defaultClassCacheSize = 256
	// expectedClasses sizes the known-class filter, it keeps working past this count with a
	// higher false positive rate.
	expectedClasses      = 1 << 16
	bloomFalsePositives  = 0.01
	signatureRecordBytes = 2 * felt.Bytes
)

var (
	ErrInvalidSignature           = errors.New("invalid block signature")
	ErrMissingStateDiffCommitment = errors.New("block header has no state diff commitment")
	ErrNoSignatureVerifier        = errors.New("store has no signature verifier")
)

type ErrIncompatibleBlockAndStateUpdate struct {
	reason string
}

func (e ErrIncompatibleBlockAndStateUpdate) Error() string {
	return fmt.Sprintf("incompatible block and state update: %v", e.reason)
}

type ErrIncompatibleBlock struct {
	reason string
}

func (e ErrIncompatibleBlock) Error() string {
	return fmt.Sprintf("incompatible block: %v", e.reason)
}

//go:generate mockgen -destination=../mocks/mock_signature_verifier.go -package=mocks github.com/NethermindEth/starknet-api/blockchain SignatureVerifier
type SignatureVerifier interface {
	Verify(pubKey *crypto.PublicKey, signature *core.BlockSignature,
		stateDiffCommitment, blockHash *felt.Hash) (bool, error)
}

var _ SignatureVerifier = (*core.BlockAuthenticator)(nil)

// Store keeps block headers, thin state updates and class bodies in a key-value store.
// Writes are serialised, reads may run concurrently with them.
type Store struct {
	database  db.KeyValueStore
	log       utils.SimpleLogger
	listener  EventListener
	verifier  SignatureVerifier
	publicKey *crypto.PublicKey

	classCacheSize int
	classCache     *lru.Cache

	mu           sync.Mutex // guards writes and knownClasses
	knownClasses *bloom.BloomFilter
}

type Option func(*Store)

func WithLogger(log utils.SimpleLogger) Option {
	return func(s *Store) {
		s.log = log
	}
}

func WithListener(listener EventListener) Option {
	return func(s *Store) {
		s.listener = listener
	}
}

// WithSignatureVerifier enables StoreSignedStateUpdate, signatures must be made by publicKey.
func WithSignatureVerifier(verifier SignatureVerifier, publicKey *crypto.PublicKey) Option {
	return func(s *Store) {
		s.verifier = verifier
		s.publicKey = publicKey
	}
}

func WithClassCacheSize(size int) Option {
	return func(s *Store) {
		s.classCacheSize = size
	}
}

// New opens a store on database and loads the hashes of the classes it already holds.
func New(database db.KeyValueStore, opts ...Option) (*Store, error) {
	s := &Store{
		database:       database,
		log:            utils.NewNopZapLogger(),
		listener:       &SelectiveListener{},
		classCacheSize: defaultClassCacheSize,
		knownClasses:   bloom.NewWithEstimates(expectedClasses, bloomFalsePositives),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.classCache, err = lru.New(s.classCacheSize); err != nil {
		return nil, errors.Wrap(err, "create class cache")
	}

	loaded := 0
	for _, bucket := range []db.Bucket{db.Classes, db.DeprecatedClasses} {
		n, err := s.loadKnownClasses(bucket)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", bucket)
		}
		loaded += n
	}
	s.log.Debugw("Opened store", "knownClasses", loaded)
	return s, nil
}

func (s *Store) loadKnownClasses(bucket db.Bucket) (int, error) {
	it, err := s.database.NewIterator(bucket.Key(), true)
	if err != nil {
		return 0, err
	}

	n := 0
	for it.Next() {
		s.knownClasses.Add(it.Key())
		n++
	}
	return n, it.Close()
}

// Height returns the number of the latest stored block, db.ErrKeyNotFound if the store is empty.
func (s *Store) Height() (height core.BlockNumber, err error) {
	s.listener.OnRead("Height")
	return height, s.database.View(func(snap db.Snapshot) error {
		height, err = chainHeight(snap)
		return err
	})
}

func chainHeight(r db.KeyValueReader) (height core.BlockNumber, err error) {
	err = r.Get(db.ChainHeight.Key(), func(val []byte) error {
		height = core.BlockNumber(binary.BigEndian.Uint64(val))
		return nil
	})
	return
}

// Head returns the header of the latest stored block
func (s *Store) Head() (head *core.BlockHeader, err error) {
	s.listener.OnRead("Head")
	return head, s.database.View(func(snap db.Snapshot) error {
		head, err = headHeader(snap)
		return err
	})
}

func headHeader(r db.KeyValueReader) (*core.BlockHeader, error) {
	height, err := chainHeight(r)
	if err != nil {
		return nil, err
	}
	return blockHeaderByNumber(r, height)
}

func (s *Store) BlockHeaderByNumber(number core.BlockNumber) (header *core.BlockHeader, err error) {
	s.listener.OnRead("BlockHeaderByNumber")
	return header, s.database.View(func(snap db.Snapshot) error {
		header, err = blockHeaderByNumber(snap, number)
		return err
	})
}

func (s *Store) BlockHeaderByHash(hash *felt.Hash) (header *core.BlockHeader, err error) {
	s.listener.OnRead("BlockHeaderByHash")
	return header, s.database.View(func(snap db.Snapshot) error {
		var number core.BlockNumber
		err = snap.Get(db.BlockHeaderNumbersByHash.Key(hashKey(hash)), func(val []byte) error {
			number = core.BlockNumber(binary.BigEndian.Uint64(val))
			return nil
		})
		if err != nil {
			return err
		}
		header, err = blockHeaderByNumber(snap, number)
		return err
	})
}

func blockHeaderByNumber(r db.KeyValueReader, number core.BlockNumber) (*core.BlockHeader, error) {
	header := new(core.BlockHeader)
	err := r.Get(db.BlockHeadersByNumber.NumberKey(uint64(number)), func(val []byte) error {
		return encoder.Unmarshal(val, header)
	})
	if err != nil {
		return nil, err
	}
	return header, nil
}

// StateUpdateByNumber returns the thin state update stored for a block
func (s *Store) StateUpdateByNumber(number core.BlockNumber) (update *core.ThinStateUpdate, err error) {
	s.listener.OnRead("StateUpdateByNumber")
	return update, s.database.View(func(snap db.Snapshot) error {
		update = new(core.ThinStateUpdate)
		err = snap.Get(db.StateUpdatesByBlockNumber.NumberKey(uint64(number)), func(val []byte) error {
			return compact.Unmarshal(val, update)
		})
		return err
	})
}

// BlockSignatureByNumber returns the signature a block was stored with by StoreSignedStateUpdate
func (s *Store) BlockSignatureByNumber(number core.BlockNumber) (*core.BlockSignature, error) {
	s.listener.OnRead("BlockSignatureByNumber")

	sig := new(core.BlockSignature)
	err := s.database.Get(db.BlockSignaturesByNumber.NumberKey(uint64(number)), func(val []byte) error {
		r := compact.NewReader(val)
		var err error
		if sig.R, err = r.ReadFelt(); err != nil {
			return compact.Field("r", err)
		}
		sig.S, err = r.ReadFelt()
		return compact.Field("s", err)
	})
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// Class returns the body of a Sierra class. The result is shared with the cache and must not be modified.
func (s *Store) Class(hash *felt.ClassHash) (*core.ContractClass, error) {
	s.listener.OnRead("Class")
	return cachedClass[core.ContractClass](s, db.Classes, hash)
}

// DeprecatedClass returns the body of a Cairo 0 class. The result is shared with the cache and must not be modified.
func (s *Store) DeprecatedClass(hash *felt.ClassHash) (*core.DeprecatedContractClass, error) {
	s.listener.OnRead("DeprecatedClass")
	return cachedClass[core.DeprecatedContractClass](s, db.DeprecatedClasses, hash)
}

type classCacheKey struct {
	bucket db.Bucket
	hash   felt.ClassHash
}

func cachedClass[C any, PC interface {
	*C
	compact.Decodable
}](s *Store, bucket db.Bucket, hash *felt.ClassHash) (*C, error) {
	key := classCacheKey{bucket: bucket, hash: *hash}
	if cached, ok := s.classCache.Get(key); ok {
		classCacheLookups.WithLabelValues("true").Inc()
		return cached.(*C), nil
	}
	classCacheLookups.WithLabelValues("false").Inc()

	class := new(C)
	err := s.database.Get(bucket.Key(classKey(hash)), func(val []byte) error {
		return compact.Unmarshal(val, PC(class))
	})
	if err != nil {
		return nil, err
	}
	s.classCache.Add(key, class)
	return class, nil
}

// StoreStateUpdate checks that the block extends the stored chain and persists its header, its
// reduced state update and the classes it declares, atomically.
func (s *Store) StoreStateUpdate(header *core.BlockHeader, update *core.StateUpdate) error {
	return s.storeStateUpdate(header, update, nil)
}

// storeStateUpdate writes the block, and its signature when one is given, in a single batch.
func (s *Store) storeStateUpdate(header *core.BlockHeader, update *core.StateUpdate,
	signature *core.BlockSignature,
) error {
	start := time.Now()
	if err := checkStateUpdate(header, update); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var newClasses [][]byte
	err := s.database.Update(func(batch db.Batch) error {
		if err := verifyBlock(batch, header, update); err != nil {
			return err
		}

		thin, declared, deprecated := update.Reduce()
		var err error
		if newClasses, err = s.storeClasses(batch, &declared, &deprecated); err != nil {
			return err
		}
		if err = storeBlockHeader(batch, header); err != nil {
			return errors.Wrap(err, "store header")
		}
		if err = batch.Put(db.StateUpdatesByBlockNumber.NumberKey(uint64(header.Number)),
			compact.Marshal(&thin)); err != nil {
			return errors.Wrap(err, "store state update")
		}
		if signature != nil {
			if err = storeBlockSignature(batch, header.Number, signature); err != nil {
				return errors.Wrap(err, "store signature")
			}
		}

		// Head of the chain is maintained as follows:
		// [db.ChainHeight]() -> (BlockNumber)
		heightBin := make([]byte, lenOfByteSlice)
		binary.BigEndian.PutUint64(heightBin, uint64(header.Number))
		return batch.Put(db.ChainHeight.Key(), heightBin)
	})
	if err != nil {
		return errors.Wrapf(err, "store block %d", header.Number)
	}

	for _, key := range newClasses {
		s.knownClasses.Add(key)
	}
	storedStateUpdates.Inc()
	storeDuration.Observe(time.Since(start).Seconds())
	s.log.Debugw("Stored state update", "number", header.Number, "hash", header.BlockHash,
		"newClasses", len(newClasses))
	return nil
}

// StoreSignedStateUpdate verifies the sequencer signature of the block before storing it.
// The signature is kept next to the header.
func (s *Store) StoreSignedStateUpdate(header *core.BlockHeader, update *core.StateUpdate,
	signature *core.BlockSignature,
) error {
	if s.verifier == nil || s.publicKey == nil {
		return ErrNoSignatureVerifier
	}
	if header.StateDiffCommitment == nil {
		return errors.Wrapf(ErrMissingStateDiffCommitment, "block %d", header.Number)
	}

	valid, err := s.verifier.Verify(s.publicKey, signature, header.StateDiffCommitment, &header.BlockHash)
	if err != nil {
		return errors.Wrapf(err, "verify block %d", header.Number)
	}
	if !valid {
		s.log.Warnw("Rejected block with invalid signature", "number", header.Number, "hash", header.BlockHash)
		return errors.Wrapf(ErrInvalidSignature, "block %d %s", header.Number, header.BlockHash)
	}

	return s.storeStateUpdate(header, update, signature)
}

// storeBlockSignature stores r and s as two compact felts.
func storeBlockSignature(w db.KeyValueWriter, number core.BlockNumber, signature *core.BlockSignature) error {
	var enc compact.Writer
	enc.WriteFelt(signature.R)
	enc.WriteFelt(signature.S)
	return w.Put(db.BlockSignaturesByNumber.NumberKey(uint64(number)), enc.Bytes())
}

// checkStateUpdate performs the checks that do not need the database
func checkStateUpdate(header *core.BlockHeader, update *core.StateUpdate) error {
	if header.BlockHash != update.BlockHash {
		return ErrIncompatibleBlockAndStateUpdate{"block hashes do not match"}
	}
	if header.StateRoot != update.NewRoot {
		return ErrIncompatibleBlockAndStateUpdate{"block's state root does not match state update's new root"}
	}
	version, err := header.StarknetVersion.Semver()
	if err != nil {
		return errors.Wrap(err, "parse block version")
	}
	if err = core.CheckBlockVersion(version); err != nil {
		return err
	}
	return errors.Wrap(update.StateDiff.Validate(), "invalid state diff")
}

func verifyBlock(r db.KeyValueReader, header *core.BlockHeader, update *core.StateUpdate) error {
	head, err := headHeader(r)
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}

	if head == nil {
		if header.Number != 0 {
			return ErrIncompatibleBlock{
				"cannot insert a block with number more than 0 in an empty blockchain",
			}
		}
		if header.ParentHash != (felt.Hash{}) {
			return ErrIncompatibleBlock{
				"cannot insert a block with non-zero parent hash in an empty blockchain",
			}
		}
		return nil
	}

	if head.Number.Next() != header.Number {
		return ErrIncompatibleBlock{
			"block number difference between head and incoming block is not 1",
		}
	}
	if header.ParentHash != head.BlockHash {
		return ErrIncompatibleBlock{
			"block's parent hash does not match head block hash",
		}
	}
	if update.OldRoot != head.StateRoot {
		return ErrIncompatibleBlockAndStateUpdate{
			"state update's old root does not match head state root",
		}
	}
	return nil
}

// storeClasses writes the bodies of classes the store does not hold yet and returns their keys.
// Class bodies are immutable, a class declared again is left untouched.
func (s *Store) storeClasses(batch db.Batch, declared *core.DeclaredClasses,
	deprecated *core.DeprecatedDeclaredClasses,
) ([][]byte, error) {
	var added [][]byte
	put := func(bucket db.Bucket, hash *felt.ClassHash, class compact.Encodable, kind string) error {
		key := bucket.Key(classKey(hash))
		if s.knownClasses.Test(key) {
			exists, err := batch.Has(key)
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
		}
		if err := batch.Put(key, compact.Marshal(class)); err != nil {
			return errors.Wrapf(err, "store class %s", hash)
		}
		added = append(added, key)
		storedClasses.WithLabelValues(kind).Inc()
		return nil
	}

	for hash, class := range declared.All() {
		if err := put(db.Classes, &hash, &class, "sierra"); err != nil {
			return nil, err
		}
	}
	for hash, class := range deprecated.All() {
		if err := put(db.DeprecatedClasses, &hash, &class, "deprecated"); err != nil {
			return nil, err
		}
	}
	return added, nil
}

// storeBlockHeader stores the given header in the database.
// The db storage for headers is maintained by two buckets as follows:
//
// [db.BlockHeaderNumbersByHash](BlockHash) -> (BlockNumber)
// [db.BlockHeadersByNumber](BlockNumber) -> (BlockHeader)
//
// "[]" is the db prefix to represent a bucket
// "()" are additional keys appended to the prefix or multiple values marshalled together
// "->" represents a key value pair.
func storeBlockHeader(w db.KeyValueWriter, header *core.BlockHeader) error {
	numBytes := make([]byte, lenOfByteSlice)
	binary.BigEndian.PutUint64(numBytes, uint64(header.Number))

	if err := w.Put(db.BlockHeaderNumbersByHash.Key(hashKey(&header.BlockHash)), numBytes); err != nil {
		return err
	}

	headerBytes, err := encoder.Marshal(header)
	if err != nil {
		return err
	}
	return w.Put(db.BlockHeadersByNumber.Key(numBytes), headerBytes)
}

func hashKey(hash *felt.Hash) []byte {
	b := hash.Bytes()
	return b[:]
}

func classKey(hash *felt.ClassHash) []byte {
	b := felt.Felt(*hash).Bytes()
	return b[:]
}
