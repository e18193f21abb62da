package db

import (
	"encoding/binary"
	"slices"
)

// Pebble does not support buckets to differentiate between groups of
// keys like Bolt or MDBX does. We use a global prefix list as a poor
// man's bucket alternative.
type Bucket byte

const (
	ChainHeight               Bucket = iota // latest stored block number
	BlockHeadersByNumber                    // block number -> CBOR encoded header
	BlockHeaderNumbersByHash                // block hash -> block number
	StateUpdatesByBlockNumber               // block number -> compact ThinStateDiff with roots
	Classes                                 // class hash -> compact ContractClass
	DeprecatedClasses                       // class hash -> compact DeprecatedContractClass
	BlockSignaturesByNumber                 // block number -> signature r and s
)

var bucketNames = [...]string{
	ChainHeight:               "ChainHeight",
	BlockHeadersByNumber:      "BlockHeadersByNumber",
	BlockHeaderNumbersByHash:  "BlockHeaderNumbersByHash",
	StateUpdatesByBlockNumber: "StateUpdatesByBlockNumber",
	Classes:                   "Classes",
	DeprecatedClasses:         "DeprecatedClasses",
	BlockSignaturesByNumber:   "BlockSignaturesByNumber",
}

func (b Bucket) String() string {
	if int(b) < len(bucketNames) {
		return bucketNames[b]
	}
	return "Unknown"
}

// Key flattens a prefix and series of byte arrays into a single []byte.
func (b Bucket) Key(key ...[]byte) []byte {
	return append([]byte{byte(b)}, slices.Concat(key...)...)
}

// NumberKey returns the key for a big-endian encoded number inside the bucket,
// so that iteration follows numeric order.
func (b Bucket) NumberKey(num uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], num)
	return b.Key(buf[:])
}
