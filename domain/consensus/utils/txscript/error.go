// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode identifies a kind of script error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrInternal is returned if internal consistency checks fail. In
	// practice this error should never be seen as it would mean there is an
	// error in the engine logic.
	ErrInternal ErrorCode = iota

	// ErrInvalidIndex is returned when an out-of-bounds index is passed to
	// a function.
	ErrInvalidIndex

	// ErrUnknownScriptVersion is returned when the script public key
	// carries a version this engine does not know how to execute.
	ErrUnknownScriptVersion

	// ErrEarlyReturn is returned when OP_RETURN is executed in the script.
	ErrEarlyReturn

	// ErrEmptyStack is returned when the script evaluated without error,
	// but terminated with an empty top stack element.
	ErrEmptyStack

	// ErrEvalFalse is returned when the script evaluated without error but
	// terminated with a false top stack element.
	ErrEvalFalse

	// ErrScriptTooBig is returned if a script is larger than MaxScriptSize.
	ErrScriptTooBig

	// ErrElementTooBig is returned if the size of an element to be pushed
	// to the stack is over MaxScriptElementSize.
	ErrElementTooBig

	// ErrTooManyOperations is returned if a script has more than
	// MaxOpsPerScript opcodes that do not push data.
	ErrTooManyOperations

	// ErrStackOverflow is returned when stack and altstack combined depth
	// is over the limit.
	ErrStackOverflow

	// ErrMalformedPush is returned when a data push opcode tries to push
	// more bytes than are left in the script.
	ErrMalformedPush

	// ErrInvalidOpcode is returned when a byte that is not part of the
	// opcode set is encountered.
	ErrInvalidOpcode

	// ErrNotPushOnly is returned when a signature script contains opcodes
	// other than data pushes.
	ErrNotPushOnly

	// ErrVerify is returned when OP_VERIFY is encountered and the top item
	// on the data stack does not evaluate to true.
	ErrVerify

	// ErrEqualVerify is returned when OP_EQUALVERIFY is encountered and the
	// comparison fails.
	ErrEqualVerify

	// ErrNumEqualVerify is returned when OP_NUMEQUALVERIFY is encountered
	// and the comparison fails.
	ErrNumEqualVerify

	// ErrCheckSigVerify is returned when OP_CHECKSIGVERIFY is encountered
	// and the signature does not verify.
	ErrCheckSigVerify

	// ErrInvalidStackOperation is returned when a stack operation is
	// attempted with a number that is invalid for the current stack size.
	ErrInvalidStackOperation

	// ErrUnbalancedConditional is returned when an OP_ELSE or OP_ENDIF is
	// encountered in a script without first having an OP_IF or OP_NOTIF or
	// the end of script is reached without encountering an OP_ENDIF when
	// an OP_IF or OP_NOTIF was previously encountered.
	ErrUnbalancedConditional

	// ErrMinimalData is returned when data is pushed with an opcode that
	// is not the smallest possible one, or a number is not minimally
	// encoded.
	ErrMinimalData

	// ErrMinimalIf is returned when the argument of OP_IF or OP_NOTIF is
	// neither empty nor exactly 0x01.
	ErrMinimalIf

	// ErrNumberTooBig is returned when the argument for an opcode that
	// expects numeric input is larger than the expected maximum number of
	// bytes.
	ErrNumberTooBig

	// ErrInvalidSigHashType is returned when a signature hash type is not
	// one of the supported types.
	ErrInvalidSigHashType

	// ErrSigLength is returned when a non-empty signature is not a 64 byte
	// Schnorr signature followed by a hash type byte.
	ErrSigLength

	// ErrPubKeyFormat is returned when the public key is not a 33 byte
	// compressed secp256k1 point.
	ErrPubKeyFormat

	// ErrNullFail is returned when a non-empty signature fails to verify.
	ErrNullFail

	// ErrCleanStack is returned when the stack holds more than the single
	// result element after evaluation.
	ErrCleanStack

	// numErrorCodes is the maximum error code number used in tests. This
	// entry MUST be the last entry in the enum.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInternal:              "ErrInternal",
	ErrInvalidIndex:          "ErrInvalidIndex",
	ErrUnknownScriptVersion:  "ErrUnknownScriptVersion",
	ErrEarlyReturn:           "ErrEarlyReturn",
	ErrEmptyStack:            "ErrEmptyStack",
	ErrEvalFalse:             "ErrEvalFalse",
	ErrScriptTooBig:          "ErrScriptTooBig",
	ErrElementTooBig:         "ErrElementTooBig",
	ErrTooManyOperations:     "ErrTooManyOperations",
	ErrStackOverflow:         "ErrStackOverflow",
	ErrMalformedPush:         "ErrMalformedPush",
	ErrInvalidOpcode:         "ErrInvalidOpcode",
	ErrNotPushOnly:           "ErrNotPushOnly",
	ErrVerify:                "ErrVerify",
	ErrEqualVerify:           "ErrEqualVerify",
	ErrNumEqualVerify:        "ErrNumEqualVerify",
	ErrCheckSigVerify:        "ErrCheckSigVerify",
	ErrInvalidStackOperation: "ErrInvalidStackOperation",
	ErrUnbalancedConditional: "ErrUnbalancedConditional",
	ErrMinimalData:           "ErrMinimalData",
	ErrMinimalIf:             "ErrMinimalIf",
	ErrNumberTooBig:          "ErrNumberTooBig",
	ErrInvalidSigHashType:    "ErrInvalidSigHashType",
	ErrSigLength:             "ErrSigLength",
	ErrPubKeyFormat:          "ErrPubKeyFormat",
	ErrNullFail:              "ErrNullFail",
	ErrCleanStack:            "ErrCleanStack",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// IsResourceLimit returns whether the code reports a script that exceeded
// one of the engine's size, operation count or stack limits.
func (e ErrorCode) IsResourceLimit() bool {
	switch e {
	case ErrScriptTooBig, ErrElementTooBig, ErrTooManyOperations, ErrStackOverflow:
		return true
	}
	return false
}

// IsMalformed returns whether the code reports a script that cannot be
// parsed or contains bytes outside the opcode set.
func (e ErrorCode) IsMalformed() bool {
	switch e {
	case ErrMalformedPush, ErrInvalidOpcode, ErrNotPushOnly, ErrMinimalData:
		return true
	}
	return false
}

// Error identifies a script-related error. It is used to indicate three
// classes of errors:
//  1. Script execution failures due to violating one of the many
//     requirements imposed by the script engine or evaluating to false
//  2. Improper API usage by callers
//  3. Internal consistency check failures
//
// The caller can use type assertions on the returned errors to access the
// ErrorCode field to ascertain the specific reason for the error. As an
// additional convenience, the caller may make use of the IsErrorCode
// function to check for a specific error code.
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// scriptError creates an Error given a set of arguments.
func scriptError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether or not the provided error is a script error
// with the provided error code.
func IsErrorCode(err error, c ErrorCode) bool {
	var scriptErr Error
	if ok := errors.As(err, &scriptErr); ok {
		return scriptErr.ErrorCode == c
	}
	return false
}
