package transactionhelper

import (
	"testing"

	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/txscript"
)

func TestIsCoinBase(t *testing.T) {
	coinbase, err := NewCoinbaseTransaction(17, []byte("extra"), []*externalapi.DomainTransactionOutput{{
		Value:           50,
		ScriptPublicKey: &externalapi.ScriptPublicKey{Script: []byte{txscript.OpTrue}},
	}})
	if err != nil {
		t.Fatalf("NewCoinbaseTransaction unexpectedly failed: %s", err)
	}
	if !IsCoinBase(coinbase) {
		t.Fatalf("a coinbase was not recognized")
	}

	pushes, err := txscript.PushedData(coinbase.Inputs[0].SignatureScript)
	if err != nil {
		t.Fatalf("PushedData unexpectedly failed: %s", err)
	}
	if len(pushes) != 2 || len(pushes[0]) != 1 || pushes[0][0] != 17 || string(pushes[1]) != "extra" {
		t.Fatalf("unexpected coinbase signature script %x", coinbase.Inputs[0].SignatureScript)
	}

	txID := externalapi.DomainTransactionID(*externalapi.NewDomainHashFromByteArray(&[32]byte{1}))
	regular := NewNativeTransaction(0, []*externalapi.DomainTransactionInput{{
		PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: txID, Index: CoinbaseOutpointIndex},
	}}, coinbase.Outputs)
	if IsCoinBase(regular) {
		t.Fatalf("a transaction spending a non null outpoint was taken for a coinbase")
	}

	twoInputs := NewNativeTransaction(0, append(coinbase.Inputs, coinbase.Inputs[0]), coinbase.Outputs)
	if IsCoinBase(twoInputs) {
		t.Fatalf("a transaction with two inputs was taken for a coinbase")
	}
}
