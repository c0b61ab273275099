// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
)

// parse hex string into a []byte.
func parseHex(tok string) ([]byte, error) {
	if !strings.HasPrefix(tok, "0x") {
		return nil, errors.New("not a hex number")
	}
	return hex.DecodeString(tok[2:])
}

// shortFormOps holds a map of opcode names to values for use in short form
// parsing. It is declared here so it only needs to be created once.
var shortFormOps map[string]byte

// parseShortForm parses a string into a script as follows:
//   - Opcodes other than the push opcodes and unknown are present as
//     either OP_NAME or just NAME
//   - Plain numbers are made into push operations
//   - Numbers beginning with 0x are inserted into the []byte as-is (so
//     0x14 is OP_DATA_20)
//   - Single quoted strings are pushed as data
//   - Anything else is an error
func parseShortForm(script string) ([]byte, error) {
	// Only create the short form opcode map once.
	if shortFormOps == nil {
		ops := make(map[string]byte)
		for opcodeName, opcodeValue := range OpcodeByName {
			if strings.Contains(opcodeName, "OP_UNKNOWN") {
				continue
			}
			ops[opcodeName] = opcodeValue

			// The opcodes named OP_# can't have the OP_ prefix
			// stripped or they would conflict with the plain
			// numbers. Also, since OP_FALSE and OP_TRUE are
			// aliases for the OP_0, and OP_1, respectively, they
			// have the same value, so detect those by name and
			// allow them.
			if (opcodeName == "OP_FALSE" || opcodeName == "OP_TRUE") ||
				(opcodeValue != Op0 && (opcodeValue < Op1 ||
					opcodeValue > Op16)) {

				ops[strings.TrimPrefix(opcodeName, "OP_")] = opcodeValue
			}
		}
		shortFormOps = ops
	}

	tokens := strings.Fields(script)
	builder := NewScriptBuilder()

	for _, tok := range tokens {
		// if parses as a plain number
		if num, err := strconv.ParseInt(tok, 10, 64); err == nil {
			builder.AddInt64(num)
			continue
		} else if bts, err := parseHex(tok); err == nil {
			// Concatenate the bytes manually since the test code
			// intentionally creates scripts that are too large and
			// would cause the builder to error otherwise.
			if builder.err == nil {
				builder.script = append(builder.script, bts...)
			}
		} else if len(tok) >= 2 &&
			tok[0] == '\'' && tok[len(tok)-1] == '\'' {
			builder.AddFullData([]byte(tok[1 : len(tok)-1]))
		} else if opcode, ok := shortFormOps[tok]; ok {
			builder.AddOp(opcode)
		} else {
			return nil, errors.Errorf("bad token %q", tok)
		}
	}
	return builder.Script()
}

// createSpendingTx generates a basic spending transaction given the passed
// signature and public key scripts.
func createSpendingTx(sigScript []byte, scriptPubKey *externalapi.ScriptPublicKey) *externalapi.DomainTransaction {
	coinbaseTx := &externalapi.DomainTransaction{
		Version: constants.TransactionVersion,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: ^uint32(0)},
			SignatureScript:  []byte{Op0, Op0},
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{Value: 0, ScriptPublicKey: scriptPubKey}},
	}

	return &externalapi.DomainTransaction{
		Version: constants.TransactionVersion,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{
				TransactionID: *consensushashing.TransactionID(coinbaseTx),
				Index:         0,
			},
			SignatureScript: sigScript,
			Sequence:        constants.MaxTxInSequenceNum,
			UTXOEntry:       utxo.NewUTXOEntry(0, scriptPubKey, true, 0),
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{
			Value:           0,
			ScriptPublicKey: &externalapi.ScriptPublicKey{Script: []byte{OpTrue}},
		}},
	}
}

func repeat(token string, count int) string {
	return strings.TrimSpace(strings.Repeat(token+" ", count))
}

func TestScripts(t *testing.T) {
	tests := []struct {
		name         string
		sigScript    string
		scriptPubKey string
		expected     *ErrorCode
	}{
		{name: "true", sigScript: "", scriptPubKey: "1"},
		{name: "push then equal", sigScript: "'abc'", scriptPubKey: "'abc' EQUAL"},
		{name: "not equal", sigScript: "'abc'", scriptPubKey: "'abd' EQUAL", expected: code(ErrEvalFalse)},
		{name: "equalverify fails", sigScript: "1", scriptPubKey: "2 EQUALVERIFY 1", expected: code(ErrEqualVerify)},
		{name: "arithmetic", sigScript: "2 3", scriptPubKey: "ADD 5 NUMEQUAL"},
		{name: "sub order", sigScript: "7 3", scriptPubKey: "SUB 4 NUMEQUAL"},
		{name: "negative numbers", sigScript: "-1", scriptPubKey: "NEGATE 1 NUMEQUAL"},
		{name: "abs", sigScript: "-5", scriptPubKey: "ABS 5 NUMEQUAL"},
		{name: "within", sigScript: "3", scriptPubKey: "2 4 WITHIN"},
		{name: "within upper bound exclusive", sigScript: "4", scriptPubKey: "2 4 WITHIN", expected: code(ErrEvalFalse)},
		{name: "min max", sigScript: "3 9", scriptPubKey: "2DUP MIN 3 NUMEQUALVERIFY MAX 9 NUMEQUAL"},
		{name: "boolean ops", sigScript: "1 0", scriptPubKey: "2DUP BOOLOR VERIFY BOOLAND NOT"},
		{name: "comparison", sigScript: "1 2", scriptPubKey: "2DUP LESSTHAN VERIFY 2DUP LESSTHANOREQUAL VERIFY " +
			"2DUP GREATERTHAN NOT VERIFY GREATERTHANOREQUAL NOT"},
		{name: "if branch", sigScript: "1", scriptPubKey: "IF 1 ELSE 0 ENDIF"},
		{name: "notif branch", sigScript: "0", scriptPubKey: "NOTIF 1 ELSE 0 ENDIF"},
		{name: "else branch", sigScript: "0", scriptPubKey: "IF 0 ELSE 1 ENDIF"},
		{name: "nested unexecuted", sigScript: "0", scriptPubKey: "IF IF 0 ENDIF 0 ELSE 1 ENDIF"},
		{name: "minimal if", sigScript: "2", scriptPubKey: "IF 1 ENDIF", expected: code(ErrMinimalIf)},
		{name: "unbalanced endif", sigScript: "1", scriptPubKey: "ENDIF", expected: code(ErrUnbalancedConditional)},
		{name: "unterminated if", sigScript: "1", scriptPubKey: "IF 1", expected: code(ErrUnbalancedConditional)},
		{name: "if across scripts", sigScript: "1 0x63", scriptPubKey: "1 ENDIF", expected: code(ErrNotPushOnly)},
		{name: "verify", sigScript: "0", scriptPubKey: "VERIFY 1", expected: code(ErrVerify)},
		{name: "return", sigScript: "1", scriptPubKey: "RETURN", expected: code(ErrEarlyReturn)},
		{name: "return in unexecuted branch", sigScript: "0", scriptPubKey: "IF RETURN ENDIF 1"},
		{name: "alt stack", sigScript: "5", scriptPubKey: "TOALTSTACK 1 FROMALTSTACK 5 NUMEQUALVERIFY"},
		{name: "empty alt stack", sigScript: "1", scriptPubKey: "FROMALTSTACK", expected: code(ErrInvalidStackOperation)},
		{name: "stack ops", sigScript: "1 2 3", scriptPubKey: "ROT 1 NUMEQUALVERIFY SWAP 2 NUMEQUALVERIFY " +
			"3 NUMEQUAL"},
		{name: "pick and roll", sigScript: "1 2 3", scriptPubKey: "2 PICK 1 NUMEQUALVERIFY 2 ROLL 1 NUMEQUALVERIFY " +
			"2DROP 1"},
		{name: "tuck nip over", sigScript: "1 2", scriptPubKey: "TUCK DEPTH 3 NUMEQUALVERIFY NIP OVER " +
			"NUMEQUALVERIFY"},
		{name: "3dup 2over 2swap", sigScript: "1 2 3", scriptPubKey: "3DUP 2OVER 2SWAP DEPTH 8 NUMEQUALVERIFY " +
			"2DROP 2DROP 2DROP 2DROP 1"},
		{name: "ifdup", sigScript: "0", scriptPubKey: "IFDUP DEPTH 1 NUMEQUALVERIFY 0NOTEQUAL NOT"},
		{name: "size", sigScript: "'abcd'", scriptPubKey: "SIZE 4 NUMEQUALVERIFY DROP 1"},
		{name: "1add 1sub", sigScript: "5", scriptPubKey: "1ADD 1ADD 1SUB 6 NUMEQUAL"},
		{name: "numnotequal", sigScript: "5 6", scriptPubKey: "NUMNOTEQUAL"},
		{name: "sha256", sigScript: "''", scriptPubKey: "SHA256 " +
			"0x20 0xe3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855 EQUAL"},
		{name: "blake2b size", sigScript: "'abc'", scriptPubKey: "BLAKE2B SIZE 32 NUMEQUALVERIFY DROP 1"},
		{name: "number too big", sigScript: "0x05 0x0000000001", scriptPubKey: "1ADD", expected: code(ErrNumberTooBig)},
		{name: "non minimal number", sigScript: "0x02 0x0100", scriptPubKey: "1ADD 2 NUMEQUAL",
			expected: code(ErrMinimalData)},
		{name: "non minimal push", sigScript: "0x01 0x05", scriptPubKey: "5 NUMEQUAL", expected: code(ErrMinimalData)},
		{name: "clean stack", sigScript: "1 1", scriptPubKey: "1", expected: code(ErrCleanStack)},
		{name: "empty stack", sigScript: "1", scriptPubKey: "DROP", expected: code(ErrEmptyStack)},
		{name: "invalid opcode", sigScript: "1", scriptPubKey: "0xba", expected: code(ErrInvalidOpcode)},
		{name: "invalid opcode in unexecuted branch", sigScript: "0", scriptPubKey: "IF 0xba ENDIF 1",
			expected: code(ErrInvalidOpcode)},
		{name: "malformed push", sigScript: "1", scriptPubKey: "0x4c 0x05 0x01", expected: code(ErrMalformedPush)},
		{name: "too many operations", sigScript: "1", scriptPubKey: repeat("NOP", constants.MaxOpsPerScript+1),
			expected: code(ErrTooManyOperations)},
		{name: "operation limit", sigScript: "1", scriptPubKey: repeat("NOP", constants.MaxOpsPerScript)},
		{name: "stack overflow", sigScript: repeat("1", constants.MaxStackSize+1), scriptPubKey: "1",
			expected: code(ErrStackOverflow)},
		{name: "element too big", sigScript: "0x4d 0x0902 0x" + strings.Repeat("00", constants.MaxScriptElementSize+1),
			scriptPubKey: "DROP 1", expected: code(ErrElementTooBig)},
		{name: "script too big", sigScript: "1",
			scriptPubKey: "1 0x" + strings.Repeat("61", constants.MaxScriptSize),
			expected:     code(ErrScriptTooBig)},
	}

	sigCache, err := NewSigCache(10)
	if err != nil {
		t.Fatalf("NewSigCache unexpectedly failed: %s", err)
	}

	for _, test := range tests {
		sigScript, err := parseShortForm(test.sigScript)
		if err != nil {
			t.Fatalf("%s: can't parse signature script: %s", test.name, err)
		}
		scriptPubKeyBytes, err := parseShortForm(test.scriptPubKey)
		if err != nil {
			t.Fatalf("%s: can't parse public key script: %s", test.name, err)
		}
		scriptPubKey := &externalapi.ScriptPublicKey{Script: scriptPubKeyBytes, Version: 0}
		tx := createSpendingTx(sigScript, scriptPubKey)

		vm, err := NewEngine(scriptPubKey, tx, 0, ScriptNoFlags, sigCache)
		if err == nil {
			err = vm.Execute()
		}

		if test.expected == nil {
			if err != nil {
				t.Fatalf("%s: script unexpectedly failed: %s", test.name, err)
			}
			continue
		}
		if !IsErrorCode(err, *test.expected) {
			t.Fatalf("%s: expected error code %s, got: %v", test.name, *test.expected, err)
		}
	}
}

func code(c ErrorCode) *ErrorCode {
	return &c
}

func TestUnknownScriptVersion(t *testing.T) {
	scriptPubKey := &externalapi.ScriptPublicKey{Script: []byte{OpTrue}, Version: constants.MaxScriptPublicKeyVersion + 1}
	tx := createSpendingTx(nil, scriptPubKey)
	vm, err := NewEngine(scriptPubKey, tx, 0, ScriptNoFlags, nil)
	if err != nil {
		t.Fatalf("NewEngine unexpectedly failed: %s", err)
	}
	err = vm.Execute()
	if !IsErrorCode(err, ErrUnknownScriptVersion) {
		t.Fatalf("expected ErrUnknownScriptVersion, got: %v", err)
	}
}

func TestExecuteRecoversFromFault(t *testing.T) {
	scriptPubKey := &externalapi.ScriptPublicKey{Script: []byte{OpNop, OpTrue}}
	tx := createSpendingTx(nil, scriptPubKey)
	vm, err := NewEngine(scriptPubKey, tx, 0, ScriptNoFlags, nil)
	if err != nil {
		t.Fatalf("NewEngine unexpectedly failed: %s", err)
	}
	faulty := &opcode{value: OpNop, name: "OP_NOP", length: 1, opfunc: func(*parsedOpcode, *Engine) error {
		var stack *stack
		stack.PushBool(true)
		return nil
	}}
	vm.scripts[1][0].opcode = faulty

	err = vm.Execute()
	if !IsErrorCode(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got: %v", err)
	}
}

func TestInvalidInputIndex(t *testing.T) {
	scriptPubKey := &externalapi.ScriptPublicKey{Script: []byte{OpTrue}}
	tx := createSpendingTx(nil, scriptPubKey)
	_, err := NewEngine(scriptPubKey, tx, 1, ScriptNoFlags, nil)
	if !IsErrorCode(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got: %v", err)
	}
}

func TestScriptBuilderAddInt64(t *testing.T) {
	tests := []struct {
		val      int64
		expected []byte
	}{
		{val: -1, expected: []byte{Op1Negate}},
		{val: 0, expected: []byte{Op0}},
		{val: 1, expected: []byte{Op1}},
		{val: 16, expected: []byte{Op16}},
		{val: 17, expected: []byte{OpData1, 0x11}},
		{val: 128, expected: []byte{OpData2, 0x80, 0x00}},
		{val: -128, expected: []byte{OpData2, 0x80, 0x80}},
		{val: 1000000, expected: []byte{OpData3, 0x40, 0x42, 0x0f}},
	}

	builder := NewScriptBuilder()
	for _, test := range tests {
		builder.Reset().AddInt64(test.val)
		result, err := builder.Script()
		if err != nil {
			t.Fatalf("AddInt64(%d) unexpectedly failed: %s", test.val, err)
		}
		if !bytes.Equal(result, test.expected) {
			t.Fatalf("AddInt64(%d): expected %x, got %x", test.val, test.expected, result)
		}
	}
}

func TestScriptNumRoundTrip(t *testing.T) {
	for _, value := range []int64{0, 1, -1, 127, -127, 128, -128, 255, 32767, -32768, maxInt32, -maxInt32} {
		encoded := scriptNum(value).Bytes()
		decoded, err := makeScriptNum(encoded, defaultScriptNumLen)
		if err != nil {
			t.Fatalf("makeScriptNum(%x) unexpectedly failed: %s", encoded, err)
		}
		if int64(decoded) != value {
			t.Fatalf("round trip of %d returned %d", value, decoded)
		}
	}

	_, err := makeScriptNum([]byte{0x80}, defaultScriptNumLen)
	if !IsErrorCode(err, ErrMinimalData) {
		t.Fatalf("negative zero must be rejected as non minimal, got: %v", err)
	}
}
