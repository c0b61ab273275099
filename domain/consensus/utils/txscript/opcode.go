// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
)

// An opcode defines the information related to a txscript opcode. opfunc is
// the function to call to perform the opcode on the script. length is the
// size of the opcode together with its data, or minus the size of the
// length prefix for the OP_PUSHDATA opcodes.
type opcode struct {
	value  byte
	name   string
	length int
	opfunc func(*parsedOpcode, *Engine) error
}

// These constants are the values of the opcodes of the script language.
// Byte values that are not listed here are invalid.
const (
	Op0                  = 0x00
	OpData1              = 0x01
	OpData2              = 0x02
	OpData3              = 0x03
	OpData4              = 0x04
	OpData5              = 0x05
	OpData6              = 0x06
	OpData7              = 0x07
	OpData8              = 0x08
	OpData9              = 0x09
	OpData10             = 0x0a
	OpData11             = 0x0b
	OpData12             = 0x0c
	OpData13             = 0x0d
	OpData14             = 0x0e
	OpData15             = 0x0f
	OpData16             = 0x10
	OpData17             = 0x11
	OpData18             = 0x12
	OpData19             = 0x13
	OpData20             = 0x14
	OpData21             = 0x15
	OpData22             = 0x16
	OpData23             = 0x17
	OpData24             = 0x18
	OpData25             = 0x19
	OpData26             = 0x1a
	OpData27             = 0x1b
	OpData28             = 0x1c
	OpData29             = 0x1d
	OpData30             = 0x1e
	OpData31             = 0x1f
	OpData32             = 0x20
	OpData33             = 0x21
	OpData34             = 0x22
	OpData35             = 0x23
	OpData36             = 0x24
	OpData37             = 0x25
	OpData38             = 0x26
	OpData39             = 0x27
	OpData40             = 0x28
	OpData41             = 0x29
	OpData42             = 0x2a
	OpData43             = 0x2b
	OpData44             = 0x2c
	OpData45             = 0x2d
	OpData46             = 0x2e
	OpData47             = 0x2f
	OpData48             = 0x30
	OpData49             = 0x31
	OpData50             = 0x32
	OpData51             = 0x33
	OpData52             = 0x34
	OpData53             = 0x35
	OpData54             = 0x36
	OpData55             = 0x37
	OpData56             = 0x38
	OpData57             = 0x39
	OpData58             = 0x3a
	OpData59             = 0x3b
	OpData60             = 0x3c
	OpData61             = 0x3d
	OpData62             = 0x3e
	OpData63             = 0x3f
	OpData64             = 0x40
	OpData65             = 0x41
	OpData66             = 0x42
	OpData67             = 0x43
	OpData68             = 0x44
	OpData69             = 0x45
	OpData70             = 0x46
	OpData71             = 0x47
	OpData72             = 0x48
	OpData73             = 0x49
	OpData74             = 0x4a
	OpData75             = 0x4b
	OpPushData1          = 0x4c
	OpPushData2          = 0x4d
	OpPushData4          = 0x4e
	Op1Negate            = 0x4f
	Op1                  = 0x51
	Op2                  = 0x52
	Op3                  = 0x53
	Op4                  = 0x54
	Op5                  = 0x55
	Op6                  = 0x56
	Op7                  = 0x57
	Op8                  = 0x58
	Op9                  = 0x59
	Op10                 = 0x5a
	Op11                 = 0x5b
	Op12                 = 0x5c
	Op13                 = 0x5d
	Op14                 = 0x5e
	Op15                 = 0x5f
	Op16                 = 0x60
	OpNop                = 0x61
	OpIf                 = 0x63
	OpNotIf              = 0x64
	OpElse               = 0x67
	OpEndIf              = 0x68
	OpVerify             = 0x69
	OpReturn             = 0x6a
	OpToAltStack         = 0x6b
	OpFromAltStack       = 0x6c
	Op2Drop              = 0x6d
	Op2Dup               = 0x6e
	Op3Dup               = 0x6f
	Op2Over              = 0x70
	Op2Swap              = 0x72
	OpIfDup              = 0x73
	OpDepth              = 0x74
	OpDrop               = 0x75
	OpDup                = 0x76
	OpNip                = 0x77
	OpOver               = 0x78
	OpPick               = 0x79
	OpRoll               = 0x7a
	OpRot                = 0x7b
	OpSwap               = 0x7c
	OpTuck               = 0x7d
	OpSize               = 0x82
	OpEqual              = 0x87
	OpEqualVerify        = 0x88
	Op1Add               = 0x8b
	Op1Sub               = 0x8c
	OpNegate             = 0x8f
	OpAbs                = 0x90
	OpNot                = 0x91
	Op0NotEqual          = 0x92
	OpAdd                = 0x93
	OpSub                = 0x94
	OpBoolAnd            = 0x9a
	OpBoolOr             = 0x9b
	OpNumEqual           = 0x9c
	OpNumEqualVerify     = 0x9d
	OpNumNotEqual        = 0x9e
	OpLessThan           = 0x9f
	OpGreaterThan        = 0xa0
	OpLessThanOrEqual    = 0xa1
	OpGreaterThanOrEqual = 0xa2
	OpMin                = 0xa3
	OpMax                = 0xa4
	OpWithin             = 0xa5
	OpSHA256             = 0xa8
	OpBlake2b            = 0xaa
	OpCheckSig           = 0xac
	OpCheckSigVerify     = 0xad
)

// Aliases of the push opcodes
const (
	OpFalse = Op0
	OpTrue  = Op1
)

// Conditional execution constants.
const (
	OpCondFalse = 0
	OpCondTrue  = 1
	OpCondSkip  = 2
)

var definedOpcodes = []opcode{
	{Op0, "OP_0", 1, opcodeFalse},
	{OpData1, "OP_DATA_1", 2, opcodePushData},
	{OpData2, "OP_DATA_2", 3, opcodePushData},
	{OpData3, "OP_DATA_3", 4, opcodePushData},
	{OpData4, "OP_DATA_4", 5, opcodePushData},
	{OpData5, "OP_DATA_5", 6, opcodePushData},
	{OpData6, "OP_DATA_6", 7, opcodePushData},
	{OpData7, "OP_DATA_7", 8, opcodePushData},
	{OpData8, "OP_DATA_8", 9, opcodePushData},
	{OpData9, "OP_DATA_9", 10, opcodePushData},
	{OpData10, "OP_DATA_10", 11, opcodePushData},
	{OpData11, "OP_DATA_11", 12, opcodePushData},
	{OpData12, "OP_DATA_12", 13, opcodePushData},
	{OpData13, "OP_DATA_13", 14, opcodePushData},
	{OpData14, "OP_DATA_14", 15, opcodePushData},
	{OpData15, "OP_DATA_15", 16, opcodePushData},
	{OpData16, "OP_DATA_16", 17, opcodePushData},
	{OpData17, "OP_DATA_17", 18, opcodePushData},
	{OpData18, "OP_DATA_18", 19, opcodePushData},
	{OpData19, "OP_DATA_19", 20, opcodePushData},
	{OpData20, "OP_DATA_20", 21, opcodePushData},
	{OpData21, "OP_DATA_21", 22, opcodePushData},
	{OpData22, "OP_DATA_22", 23, opcodePushData},
	{OpData23, "OP_DATA_23", 24, opcodePushData},
	{OpData24, "OP_DATA_24", 25, opcodePushData},
	{OpData25, "OP_DATA_25", 26, opcodePushData},
	{OpData26, "OP_DATA_26", 27, opcodePushData},
	{OpData27, "OP_DATA_27", 28, opcodePushData},
	{OpData28, "OP_DATA_28", 29, opcodePushData},
	{OpData29, "OP_DATA_29", 30, opcodePushData},
	{OpData30, "OP_DATA_30", 31, opcodePushData},
	{OpData31, "OP_DATA_31", 32, opcodePushData},
	{OpData32, "OP_DATA_32", 33, opcodePushData},
	{OpData33, "OP_DATA_33", 34, opcodePushData},
	{OpData34, "OP_DATA_34", 35, opcodePushData},
	{OpData35, "OP_DATA_35", 36, opcodePushData},
	{OpData36, "OP_DATA_36", 37, opcodePushData},
	{OpData37, "OP_DATA_37", 38, opcodePushData},
	{OpData38, "OP_DATA_38", 39, opcodePushData},
	{OpData39, "OP_DATA_39", 40, opcodePushData},
	{OpData40, "OP_DATA_40", 41, opcodePushData},
	{OpData41, "OP_DATA_41", 42, opcodePushData},
	{OpData42, "OP_DATA_42", 43, opcodePushData},
	{OpData43, "OP_DATA_43", 44, opcodePushData},
	{OpData44, "OP_DATA_44", 45, opcodePushData},
	{OpData45, "OP_DATA_45", 46, opcodePushData},
	{OpData46, "OP_DATA_46", 47, opcodePushData},
	{OpData47, "OP_DATA_47", 48, opcodePushData},
	{OpData48, "OP_DATA_48", 49, opcodePushData},
	{OpData49, "OP_DATA_49", 50, opcodePushData},
	{OpData50, "OP_DATA_50", 51, opcodePushData},
	{OpData51, "OP_DATA_51", 52, opcodePushData},
	{OpData52, "OP_DATA_52", 53, opcodePushData},
	{OpData53, "OP_DATA_53", 54, opcodePushData},
	{OpData54, "OP_DATA_54", 55, opcodePushData},
	{OpData55, "OP_DATA_55", 56, opcodePushData},
	{OpData56, "OP_DATA_56", 57, opcodePushData},
	{OpData57, "OP_DATA_57", 58, opcodePushData},
	{OpData58, "OP_DATA_58", 59, opcodePushData},
	{OpData59, "OP_DATA_59", 60, opcodePushData},
	{OpData60, "OP_DATA_60", 61, opcodePushData},
	{OpData61, "OP_DATA_61", 62, opcodePushData},
	{OpData62, "OP_DATA_62", 63, opcodePushData},
	{OpData63, "OP_DATA_63", 64, opcodePushData},
	{OpData64, "OP_DATA_64", 65, opcodePushData},
	{OpData65, "OP_DATA_65", 66, opcodePushData},
	{OpData66, "OP_DATA_66", 67, opcodePushData},
	{OpData67, "OP_DATA_67", 68, opcodePushData},
	{OpData68, "OP_DATA_68", 69, opcodePushData},
	{OpData69, "OP_DATA_69", 70, opcodePushData},
	{OpData70, "OP_DATA_70", 71, opcodePushData},
	{OpData71, "OP_DATA_71", 72, opcodePushData},
	{OpData72, "OP_DATA_72", 73, opcodePushData},
	{OpData73, "OP_DATA_73", 74, opcodePushData},
	{OpData74, "OP_DATA_74", 75, opcodePushData},
	{OpData75, "OP_DATA_75", 76, opcodePushData},
	{OpPushData1, "OP_PUSHDATA1", -1, opcodePushData},
	{OpPushData2, "OP_PUSHDATA2", -2, opcodePushData},
	{OpPushData4, "OP_PUSHDATA4", -4, opcodePushData},
	{Op1Negate, "OP_1NEGATE", 1, opcode1Negate},
	{Op1, "OP_1", 1, opcodeN},
	{Op2, "OP_2", 1, opcodeN},
	{Op3, "OP_3", 1, opcodeN},
	{Op4, "OP_4", 1, opcodeN},
	{Op5, "OP_5", 1, opcodeN},
	{Op6, "OP_6", 1, opcodeN},
	{Op7, "OP_7", 1, opcodeN},
	{Op8, "OP_8", 1, opcodeN},
	{Op9, "OP_9", 1, opcodeN},
	{Op10, "OP_10", 1, opcodeN},
	{Op11, "OP_11", 1, opcodeN},
	{Op12, "OP_12", 1, opcodeN},
	{Op13, "OP_13", 1, opcodeN},
	{Op14, "OP_14", 1, opcodeN},
	{Op15, "OP_15", 1, opcodeN},
	{Op16, "OP_16", 1, opcodeN},
	{OpNop, "OP_NOP", 1, opcodeNop},
	{OpIf, "OP_IF", 1, opcodeIf},
	{OpNotIf, "OP_NOTIF", 1, opcodeNotIf},
	{OpElse, "OP_ELSE", 1, opcodeElse},
	{OpEndIf, "OP_ENDIF", 1, opcodeEndif},
	{OpVerify, "OP_VERIFY", 1, opcodeVerify},
	{OpReturn, "OP_RETURN", 1, opcodeReturn},
	{OpToAltStack, "OP_TOALTSTACK", 1, opcodeToAltStack},
	{OpFromAltStack, "OP_FROMALTSTACK", 1, opcodeFromAltStack},
	{Op2Drop, "OP_2DROP", 1, opcode2Drop},
	{Op2Dup, "OP_2DUP", 1, opcode2Dup},
	{Op3Dup, "OP_3DUP", 1, opcode3Dup},
	{Op2Over, "OP_2OVER", 1, opcode2Over},
	{Op2Swap, "OP_2SWAP", 1, opcode2Swap},
	{OpIfDup, "OP_IFDUP", 1, opcodeIfDup},
	{OpDepth, "OP_DEPTH", 1, opcodeDepth},
	{OpDrop, "OP_DROP", 1, opcodeDrop},
	{OpDup, "OP_DUP", 1, opcodeDup},
	{OpNip, "OP_NIP", 1, opcodeNip},
	{OpOver, "OP_OVER", 1, opcodeOver},
	{OpPick, "OP_PICK", 1, opcodePick},
	{OpRoll, "OP_ROLL", 1, opcodeRoll},
	{OpRot, "OP_ROT", 1, opcodeRot},
	{OpSwap, "OP_SWAP", 1, opcodeSwap},
	{OpTuck, "OP_TUCK", 1, opcodeTuck},
	{OpSize, "OP_SIZE", 1, opcodeSize},
	{OpEqual, "OP_EQUAL", 1, opcodeEqual},
	{OpEqualVerify, "OP_EQUALVERIFY", 1, opcodeEqualVerify},
	{Op1Add, "OP_1ADD", 1, opcode1Add},
	{Op1Sub, "OP_1SUB", 1, opcode1Sub},
	{OpNegate, "OP_NEGATE", 1, opcodeNegate},
	{OpAbs, "OP_ABS", 1, opcodeAbs},
	{OpNot, "OP_NOT", 1, opcodeNot},
	{Op0NotEqual, "OP_0NOTEQUAL", 1, opcode0NotEqual},
	{OpAdd, "OP_ADD", 1, opcodeAdd},
	{OpSub, "OP_SUB", 1, opcodeSub},
	{OpBoolAnd, "OP_BOOLAND", 1, opcodeBoolAnd},
	{OpBoolOr, "OP_BOOLOR", 1, opcodeBoolOr},
	{OpNumEqual, "OP_NUMEQUAL", 1, opcodeNumEqual},
	{OpNumEqualVerify, "OP_NUMEQUALVERIFY", 1, opcodeNumEqualVerify},
	{OpNumNotEqual, "OP_NUMNOTEQUAL", 1, opcodeNumNotEqual},
	{OpLessThan, "OP_LESSTHAN", 1, opcodeLessThan},
	{OpGreaterThan, "OP_GREATERTHAN", 1, opcodeGreaterThan},
	{OpLessThanOrEqual, "OP_LESSTHANOREQUAL", 1, opcodeLessThanOrEqual},
	{OpGreaterThanOrEqual, "OP_GREATERTHANOREQUAL", 1, opcodeGreaterThanOrEqual},
	{OpMin, "OP_MIN", 1, opcodeMin},
	{OpMax, "OP_MAX", 1, opcodeMax},
	{OpWithin, "OP_WITHIN", 1, opcodeWithin},
	{OpSHA256, "OP_SHA256", 1, opcodeSha256},
	{OpBlake2b, "OP_BLAKE2B", 1, opcodeBlake2b},
	{OpCheckSig, "OP_CHECKSIG", 1, opcodeCheckSig},
	{OpCheckSigVerify, "OP_CHECKSIGVERIFY", 1, opcodeCheckSigVerify},
}

// opcodeArray holds details about all possible opcodes such as how many
// bytes the opcode and any associated data should take, its human-readable
// name, and the handler function.
var opcodeArray [256]opcode

// OpcodeByName is a map that can be used to lookup an opcode by its
// human-readable name (OP_CHECKSIG, OP_TRUE, etc).
var OpcodeByName = make(map[string]byte)

var validOpcodes [256]bool

func init() {
	for i := range opcodeArray {
		value := byte(i)
		opcodeArray[i] = opcode{
			value:  value,
			name:   fmt.Sprintf("OP_UNKNOWN%d", value),
			length: 1,
			opfunc: opcodeInvalid,
		}
	}
	for _, op := range definedOpcodes {
		opcodeArray[op.value] = op
		validOpcodes[op.value] = true
	}

	for _, op := range opcodeArray {
		OpcodeByName[op.name] = op.value
	}
	OpcodeByName["OP_FALSE"] = OpFalse
	OpcodeByName["OP_TRUE"] = OpTrue
}

// parsedOpcode represents an opcode that has been parsed and includes any
// potential data associated with it.
type parsedOpcode struct {
	opcode *opcode
	data   []byte
}

// isInvalid returns whether the opcode is outside the opcode set. Invalid
// opcodes fail the script even in an unexecuted branch.
func (pop *parsedOpcode) isInvalid() bool {
	return !validOpcodes[pop.opcode.value]
}

// isConditional returns whether or not the opcode is a conditional opcode which
// changes the conditional execution stack when executed.
func (pop *parsedOpcode) isConditional() bool {
	switch pop.opcode.value {
	case OpIf:
		return true
	case OpNotIf:
		return true
	case OpElse:
		return true
	case OpEndIf:
		return true
	default:
		return false
	}
}

// checkMinimalDataPush returns whether or not the current data push uses the
// smallest possible opcode to represent it. For example, the value 15 could
// be pushed with OP_DATA_1 15 (among other variations); however, OP_15 is a
// single opcode that represents the same value and is only a single byte
// versus two bytes.
func (pop *parsedOpcode) checkMinimalDataPush() error {
	data := pop.data
	dataLen := len(data)
	opcode := pop.opcode.value

	if dataLen == 0 && opcode != Op0 {
		str := fmt.Sprintf("zero length data push is encoded with "+
			"opcode %s instead of OP_0", pop.opcode.name)
		return scriptError(ErrMinimalData, str)
	} else if dataLen == 1 && data[0] >= 1 && data[0] <= 16 {
		if opcode != Op1+data[0]-1 {
			// Should have used OP_1 .. OP_16
			str := fmt.Sprintf("data push of the value %d encoded "+
				"with opcode %s instead of OP_%d", data[0],
				pop.opcode.name, data[0])
			return scriptError(ErrMinimalData, str)
		}
	} else if dataLen == 1 && data[0] == 0x81 {
		if opcode != Op1Negate {
			str := fmt.Sprintf("data push of the value -1 encoded "+
				"with opcode %s instead of OP_1NEGATE",
				pop.opcode.name)
			return scriptError(ErrMinimalData, str)
		}
	} else if dataLen <= 75 {
		if int(opcode) != dataLen {
			// Should have used a direct push
			str := fmt.Sprintf("data push of %d bytes encoded "+
				"with opcode %s instead of OP_DATA_%d", dataLen,
				pop.opcode.name, dataLen)
			return scriptError(ErrMinimalData, str)
		}
	} else if dataLen <= 255 {
		if opcode != OpPushData1 {
			str := fmt.Sprintf("data push of %d bytes encoded "+
				"with opcode %s instead of OP_PUSHDATA1",
				dataLen, pop.opcode.name)
			return scriptError(ErrMinimalData, str)
		}
	} else if dataLen <= 65535 {
		if opcode != OpPushData2 {
			str := fmt.Sprintf("data push of %d bytes encoded "+
				"with opcode %s instead of OP_PUSHDATA2",
				dataLen, pop.opcode.name)
			return scriptError(ErrMinimalData, str)
		}
	}
	return nil
}

// print returns a human-readable string representation of the opcode for use
// in script disassembly.
func (pop *parsedOpcode) print(oneline bool) string {
	opcodeName := pop.opcode.name
	if pop.opcode.length == 1 {
		return opcodeName
	}
	if oneline {
		return fmt.Sprintf("%x", pop.data)
	}
	return fmt.Sprintf("%s 0x%x", opcodeName, pop.data)
}

// bytes returns any data associated with the opcode encoded as it would be in
// a script. This is used for unparsing scripts from parsed opcodes.
func (pop *parsedOpcode) bytes() ([]byte, error) {
	var retbytes []byte
	if pop.opcode.length > 0 {
		retbytes = make([]byte, 1, pop.opcode.length)
	} else {
		retbytes = make([]byte, 1, 1+len(pop.data)-
			pop.opcode.length)
	}

	retbytes[0] = pop.opcode.value
	if pop.opcode.length == 1 {
		if len(pop.data) != 0 {
			str := fmt.Sprintf("internal consistency error - "+
				"parsed opcode %s has data length %d when %d "+
				"was expected", pop.opcode.name, len(pop.data),
				0)
			return nil, scriptError(ErrInternal, str)
		}
		return retbytes, nil
	}
	nbytes := pop.opcode.length
	if pop.opcode.length < 0 {
		l := len(pop.data)
		switch pop.opcode.length {
		case -1:
			retbytes = append(retbytes, byte(l))
			nbytes = int(retbytes[1]) + len(retbytes)
		case -2:
			retbytes = append(retbytes, byte(l&0xff),
				byte(l>>8&0xff))
			nbytes = int(uint16(retbytes[1])|uint16(retbytes[2])<<8) +
				len(retbytes)
		case -4:
			retbytes = append(retbytes, byte(l&0xff),
				byte((l>>8)&0xff), byte((l>>16)&0xff),
				byte((l>>24)&0xff))
			nbytes = int(uint32(retbytes[1])|uint32(retbytes[2])<<8|
				uint32(retbytes[3])<<16|uint32(retbytes[4])<<24) +
				len(retbytes)
		}
	}

	retbytes = append(retbytes, pop.data...)

	if len(retbytes) != nbytes {
		str := fmt.Sprintf("internal consistency error - "+
			"parsed opcode %s has data length %d when %d was "+
			"expected", pop.opcode.name, len(retbytes), nbytes)
		return nil, scriptError(ErrInternal, str)
	}

	return retbytes, nil
}
