package testutils

import (
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/txscript"
)

// OpTrueScript returns a script public key anyone can spend with an empty
// signature script
func OpTrueScript() *externalapi.ScriptPublicKey {
	return &externalapi.ScriptPublicKey{Script: []byte{txscript.OpTrue}, Version: constants.MaxScriptPublicKeyVersion}
}
