// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/hashes"
)

// PubKeyHashSize is the size of the public key hash committed to by a
// pay-to-pubkey-hash script
const PubKeyHashSize = 20

// ScriptClass is an enumeration for the list of standard types of script.
type ScriptClass byte

// Classes of script payment known about in the blockchain.
const (
	NonStandardTy ScriptClass = iota // None of the recognized forms.
	PubKeyTy                         // Pay pubkey.
	PubKeyHashTy                     // Pay pubkey hash.
)

// scriptClassToName houses the human-readable strings which describe each
// script class.
var scriptClassToName = []string{
	NonStandardTy: "nonstandard",
	PubKeyTy:      "pubkey",
	PubKeyHashTy:  "pubkeyhash",
}

// String implements the Stringer interface by returning the name of
// the enum script class. If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// isPubKey returns true if the script passed is a pay-to-pubkey
// transaction, false otherwise.
func isPubKey(pops []parsedOpcode) bool {
	return len(pops) == 2 &&
		pops[0].opcode.value == OpData33 &&
		pops[1].opcode.value == OpCheckSig
}

// isPubKeyHash returns true if the script passed is a pay-to-pubkey-hash
// transaction, false otherwise.
func isPubKeyHash(pops []parsedOpcode) bool {
	return len(pops) == 5 &&
		pops[0].opcode.value == OpDup &&
		pops[1].opcode.value == OpBlake2b &&
		pops[2].opcode.value == OpData20 &&
		pops[3].opcode.value == OpEqualVerify &&
		pops[4].opcode.value == OpCheckSig
}

// typeOfScript returns the type of the script being inspected from the known
// standard types.
func typeOfScript(pops []parsedOpcode) ScriptClass {
	switch {
	case isPubKey(pops):
		return PubKeyTy
	case isPubKeyHash(pops):
		return PubKeyHashTy
	}
	return NonStandardTy
}

// GetScriptClass returns the class of the script passed.
//
// NonStandardTy will be returned when the script does not parse.
func GetScriptClass(script []byte) ScriptClass {
	pops, err := parseScript(script)
	if err != nil {
		return NonStandardTy
	}
	return typeOfScript(pops)
}

// PubKeyHash returns the hash a pay-to-pubkey-hash script commits to for
// the given serialized public key
func PubKeyHash(serializedPubKey []byte) []byte {
	hash := hashes.Blake2b256(serializedPubKey)
	return hash[:PubKeyHashSize]
}

// PayToPubKeyScript creates a new script to pay a transaction output to
// a 33 byte compressed public key.
func PayToPubKeyScript(serializedPubKey []byte) (*externalapi.ScriptPublicKey, error) {
	if len(serializedPubKey) != secp256k1.PubKeyBytesLenCompressed {
		return nil, errors.Errorf("public key is %d bytes, expected %d",
			len(serializedPubKey), secp256k1.PubKeyBytesLenCompressed)
	}
	script, err := NewScriptBuilder().AddData(serializedPubKey).AddOp(OpCheckSig).Script()
	if err != nil {
		return nil, err
	}
	return &externalapi.ScriptPublicKey{Script: script, Version: constants.MaxScriptPublicKeyVersion}, nil
}

// PayToPubKeyHashScript creates a new script to pay a transaction output to
// the owner of the public key whose hash is pubKeyHash.
func PayToPubKeyHashScript(pubKeyHash []byte) (*externalapi.ScriptPublicKey, error) {
	if len(pubKeyHash) != PubKeyHashSize {
		return nil, errors.Errorf("public key hash is %d bytes, expected %d",
			len(pubKeyHash), PubKeyHashSize)
	}
	script, err := NewScriptBuilder().AddOp(OpDup).AddOp(OpBlake2b).
		AddData(pubKeyHash).AddOp(OpEqualVerify).AddOp(OpCheckSig).
		Script()
	if err != nil {
		return nil, err
	}
	return &externalapi.ScriptPublicKey{Script: script, Version: constants.MaxScriptPublicKeyVersion}, nil
}

// ExtractScriptPubKeyAddress returns the class of the given script and the
// key material it pays to: the serialized public key for PubKeyTy and the
// public key hash for PubKeyHashTy.
func ExtractScriptPubKeyAddress(scriptPubKey *externalapi.ScriptPublicKey) (ScriptClass, []byte, error) {
	if scriptPubKey.Version > constants.MaxScriptPublicKeyVersion {
		return NonStandardTy, nil, nil
	}
	pops, err := parseScript(scriptPubKey.Script)
	if err != nil {
		return NonStandardTy, nil, err
	}

	scriptClass := typeOfScript(pops)
	switch scriptClass {
	case PubKeyTy:
		return scriptClass, pops[0].data, nil
	case PubKeyHashTy:
		return scriptClass, pops[2].data, nil
	}
	return NonStandardTy, nil, nil
}
