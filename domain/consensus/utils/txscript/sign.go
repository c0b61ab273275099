// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
)

// RawTxInSignature returns the serialized Schnorr signature for the input idx of
// the given transaction, with hashType appended to it. The input must carry
// the UTXOEntry it spends.
func RawTxInSignature(tx *externalapi.DomainTransaction, idx int, hashType consensushashing.SigHashType,
	key *secp256k1.PrivateKey) ([]byte, error) {

	hash, err := consensushashing.CalculateSignatureHash(tx, idx, hashType)
	if err != nil {
		return nil, err
	}
	signature, err := schnorr.Sign(key, hash.ByteSlice())
	if err != nil {
		return nil, errors.Errorf("cannot sign tx input: %s", err)
	}

	return append(signature.Serialize(), byte(hashType)), nil
}

// SignatureScript creates an input signature script for tx to spend coins sent
// from a previous output to the owner of privKey through a pay-to-pubkey-hash
// script. tx must include all transaction inputs and outputs, however txin
// scripts are allowed to be filled or empty. The returned script is calculated
// to be used as the idx'th txin sigscript for tx.
func SignatureScript(tx *externalapi.DomainTransaction, idx int, hashType consensushashing.SigHashType,
	privKey *secp256k1.PrivateKey) ([]byte, error) {

	sig, err := RawTxInSignature(tx, idx, hashType, privKey)
	if err != nil {
		return nil, err
	}

	pkData := privKey.PubKey().SerializeCompressed()
	return NewScriptBuilder().AddData(sig).AddData(pkData).Script()
}

// PayToPubKeySignatureScript creates an input signature script spending a
// pay-to-pubkey output owned by privKey.
func PayToPubKeySignatureScript(tx *externalapi.DomainTransaction, idx int, hashType consensushashing.SigHashType,
	privKey *secp256k1.PrivateKey) ([]byte, error) {

	sig, err := RawTxInSignature(tx, idx, hashType, privKey)
	if err != nil {
		return nil, err
	}
	return NewScriptBuilder().AddData(sig).Script()
}

// KeyDB is an interface type provided to SignTxOutput, it encapsulates
// any user state required to get the private keys for an address. The address
// is the serialized public key for pay-to-pubkey outputs and the public key
// hash for pay-to-pubkey-hash outputs.
type KeyDB interface {
	GetKey(address []byte) (*secp256k1.PrivateKey, error)
}

// KeyClosure implements KeyDB with a closure.
type KeyClosure func(address []byte) (*secp256k1.PrivateKey, error)

// GetKey implements KeyDB by returning the result of calling the closure.
func (kc KeyClosure) GetKey(address []byte) (*secp256k1.PrivateKey, error) {
	return kc(address)
}

// SignTxOutput signs input idx of the given tx, which spends an output paying
// to one of the standard script classes, with a signature type of hashType.
// The key is looked up by calling kdb with the address the output pays to.
func SignTxOutput(tx *externalapi.DomainTransaction, idx int, hashType consensushashing.SigHashType,
	kdb KeyDB) ([]byte, error) {

	if idx < 0 || idx >= len(tx.Inputs) {
		return nil, errors.Errorf("input index %d is out of range", idx)
	}
	utxoEntry := tx.Inputs[idx].UTXOEntry
	if utxoEntry == nil {
		return nil, errors.Errorf("input %d has no UTXO entry", idx)
	}

	class, address, err := ExtractScriptPubKeyAddress(utxoEntry.ScriptPublicKey())
	if err != nil {
		return nil, err
	}

	switch class {
	case PubKeyTy:
		key, err := kdb.GetKey(address)
		if err != nil {
			return nil, err
		}
		return PayToPubKeySignatureScript(tx, idx, hashType, key)
	case PubKeyHashTy:
		key, err := kdb.GetKey(address)
		if err != nil {
			return nil, err
		}
		return SignatureScript(tx, idx, hashType, key)
	default:
		return nil, errors.New("can't sign unknown transactions")
	}
}
