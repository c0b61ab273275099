package multiset

import (
	"testing"
)

func TestMultisetIsOrderIndependent(t *testing.T) {
	first := New()
	first.Add([]byte("a"))
	first.Add([]byte("b"))

	second := New()
	second.Add([]byte("b"))
	second.Add([]byte("a"))

	if !first.Hash().Equal(second.Hash()) {
		t.Fatalf("multiset hash depends on insertion order")
	}
}

func TestMultisetRemoveRestores(t *testing.T) {
	ms := New()
	ms.Add([]byte("a"))
	before := ms.Hash()

	clone := ms.Clone()
	clone.Add([]byte("b"))
	if clone.Hash().Equal(before) {
		t.Fatalf("adding an element did not change the hash")
	}
	if !ms.Hash().Equal(before) {
		t.Fatalf("modifying a clone changed the original")
	}

	clone.Remove([]byte("b"))
	if !clone.Hash().Equal(before) {
		t.Fatalf("removing the added element did not restore the hash")
	}
}

func TestMultisetSerialization(t *testing.T) {
	ms := New()
	ms.Add([]byte("zmgd"))
	deserialized, err := FromBytes(ms.Serialize())
	if err != nil {
		t.Fatalf("FromBytes unexpectedly failed: %s", err)
	}
	if !deserialized.Hash().Equal(ms.Hash()) {
		t.Fatalf("hash changed after deserialization")
	}

	_, err = FromBytes([]byte{1, 2, 3})
	if err == nil {
		t.Fatalf("FromBytes unexpectedly succeeded with a short input")
	}
}
