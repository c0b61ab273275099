package database

import (
	"bytes"
	"encoding/hex"
)

var separator = []byte("/")

// Key is a full database key: the path of the bucket it lives in followed
// by the key itself.
type Key struct {
	bucket *Bucket
	suffix []byte
}

// Bytes returns the full key as stored in the database.
func (k *Key) Bytes() []byte {
	bucketPath := k.bucket.Path()
	keyBytes := make([]byte, len(bucketPath)+len(k.suffix))
	copy(keyBytes, bucketPath)
	copy(keyBytes[len(bucketPath):], k.suffix)
	return keyBytes
}

func (k *Key) String() string {
	return hex.EncodeToString(k.Bytes())
}

// Bucket returns the bucket the key lives in.
func (k *Key) Bucket() *Bucket {
	return k.bucket
}

// Suffix returns the key without its bucket path.
func (k *Key) Suffix() []byte {
	return k.suffix
}

// Bucket is a path of nested bucket names. Buckets are used to build keys
// and as prefixes for cursors.
type Bucket struct {
	path [][]byte
}

// MakeBucket creates a new Bucket from the given path.
func MakeBucket(path ...[]byte) *Bucket {
	return &Bucket{path: path}
}

// Bucket returns the sub-bucket of b named bucketBytes.
func (b *Bucket) Bucket(bucketBytes []byte) *Bucket {
	subPath := make([][]byte, len(b.path)+1)
	copy(subPath, b.path)
	subPath[len(b.path)] = bucketBytes
	return MakeBucket(subPath...)
}

// Key returns the key named keyBytes inside b.
func (b *Bucket) Key(keyBytes []byte) *Key {
	suffix := make([]byte, len(keyBytes))
	copy(suffix, keyBytes)
	return &Key{bucket: b, suffix: suffix}
}

// Path returns the full path of b, terminated by the separator so that no
// bucket path is a prefix of a sibling's.
func (b *Bucket) Path() []byte {
	joined := bytes.Join(b.path, separator)
	return append(joined, separator...)
}
