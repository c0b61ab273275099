package hashes

import (
	"testing"
)

func TestDomainSeparation(t *testing.T) {
	data := []byte("zmgd")
	writers := map[string]HashWriter{
		"transaction hash": NewTransactionHashWriter(),
		"transaction id":   NewTransactionIDWriter(),
		"signing hash":     NewTransactionSigningHashWriter(),
		"block hash":       NewBlockHashWriter(),
		"merkle branch":    NewMerkleBranchHashWriter(),
		"utxo commitment":  NewUTXOCommitmentHashWriter(),
	}

	seen := make(map[string]string)
	for name, writer := range writers {
		writer.InfallibleWrite(data)
		digest := writer.Finalize().String()
		if other, ok := seen[digest]; ok {
			t.Fatalf("%s and %s produced the same digest %s", name, other, digest)
		}
		seen[digest] = name
	}

	plain := Blake2b256(data)
	if _, ok := seen[string(plain[:])]; ok {
		t.Fatalf("unkeyed blake2b collided with a keyed writer")
	}
}

func TestWriterIsDeterministic(t *testing.T) {
	first := NewBlockHashWriter()
	first.InfallibleWrite([]byte{1, 2, 3})
	second := NewBlockHashWriter()
	second.InfallibleWrite([]byte{1})
	second.InfallibleWrite([]byte{2, 3})
	if !first.Finalize().Equal(second.Finalize()) {
		t.Fatalf("incremental writes produced a different digest")
	}
}
