package transactionvalidator

import (
	"bytes"
	"context"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/testutils"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
	"github.com/zmgnet/zmgd/domain/consensus/utils/txscript"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
)

const testMaturity = 10

func outpoint(b byte, index uint32) externalapi.DomainOutpoint {
	transactionID := externalapi.DomainTransactionID(*externalapi.NewDomainHashFromByteArray(
		&[externalapi.DomainHashSize]byte{b}))
	return externalapi.DomainOutpoint{TransactionID: transactionID, Index: index}
}

func spendingTx(outpoints []externalapi.DomainOutpoint, outputValues ...uint64) *externalapi.DomainTransaction {
	inputs := make([]*externalapi.DomainTransactionInput, len(outpoints))
	for i, previousOutpoint := range outpoints {
		inputs[i] = &externalapi.DomainTransactionInput{
			PreviousOutpoint: previousOutpoint,
			Sequence:         constants.MaxTxInSequenceNum,
		}
	}
	outputs := make([]*externalapi.DomainTransactionOutput, len(outputValues))
	for i, value := range outputValues {
		outputs[i] = &externalapi.DomainTransactionOutput{Value: value, ScriptPublicKey: testutils.OpTrueScript()}
	}
	return transactionhelper.NewNativeTransaction(constants.TransactionVersion, inputs, outputs)
}

func testUTXOSet() model.UTXOReader {
	tooManyOps := bytes.Repeat([]byte{txscript.OpNop}, constants.MaxOpsPerScript+1)
	tooManyOps = append(tooManyOps, txscript.OpTrue)

	collection := model.UTXOCollection{
		outpoint(1, 0): utxo.NewUTXOEntry(1000, testutils.OpTrueScript(), false, 5),
		outpoint(1, 1): utxo.NewUTXOEntry(2000, testutils.OpTrueScript(), false, 5),
		outpoint(2, 0): utxo.NewUTXOEntry(5000, testutils.OpTrueScript(), true, 95),
		outpoint(3, 0): utxo.NewUTXOEntry(1000, &externalapi.ScriptPublicKey{Script: []byte{txscript.OpFalse}}, false, 5),
		outpoint(4, 0): utxo.NewUTXOEntry(1000, &externalapi.ScriptPublicKey{Script: tooManyOps}, false, 5),
		outpoint(5, 0): utxo.NewUTXOEntry(1000, &externalapi.ScriptPublicKey{Script: []byte{0xff}}, false, 5),
	}
	return utxo.NewCollectionReader(collection)
}

func TestValidateTransaction(t *testing.T) {
	validator, err := New(testMaturity, nil)
	if err != nil {
		t.Fatalf("New unexpectedly failed: %s", err)
	}
	utxoSet := testUTXOSet()

	coinbase, err := transactionhelper.NewCoinbaseTransaction(100, nil,
		[]*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: testutils.OpTrueScript()}})
	if err != nil {
		t.Fatalf("NewCoinbaseTransaction unexpectedly failed: %s", err)
	}

	lockedTx := spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0)}, 900)
	lockedTx.LockTime = 200
	lockedTx.Inputs[0].Sequence = 0

	tests := []struct {
		name             string
		tx               *externalapi.DomainTransaction
		povHeight        uint64
		expectedCategory externalapi.RejectCategory
		expectedErr      error
		expectedFee      uint64
	}{
		{
			name:        "valid",
			tx:          spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0), outpoint(1, 1)}, 2500),
			povHeight:   100,
			expectedFee: 500,
		},
		{
			name:        "spends everything",
			tx:          spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0)}, 1000),
			povHeight:   100,
			expectedFee: 0,
		},
		{
			name:        "mature coinbase",
			tx:          spendingTx([]externalapi.DomainOutpoint{outpoint(2, 0)}, 4000),
			povHeight:   95 + testMaturity,
			expectedFee: 1000,
		},
		{
			name:             "immature coinbase",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(2, 0)}, 4000),
			povHeight:        95 + testMaturity - 1,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrImmatureSpend,
		},
		{
			name:             "missing outpoint",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0), outpoint(9, 0)}, 500),
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name:             "spend too high",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0)}, 1001),
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrSpendTooHigh,
		},
		{
			name:             "failing script",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0), outpoint(3, 0)}, 100),
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrScriptValidation,
		},
		{
			name:             "script exceeds the operation limit",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(4, 0)}, 100),
			povHeight:        100,
			expectedCategory: externalapi.CategoryResourceExceeded,
			expectedErr:      ruleerrors.ErrScriptResourceExceeded,
		},
		{
			name:             "invalid opcode",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(5, 0)}, 100),
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrScriptMalformed,
		},
		{
			name:             "duplicate inputs",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0), outpoint(1, 0)}, 100),
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrDuplicateTxInputs,
		},
		{
			name:             "no inputs",
			tx:               spendingTx(nil, 100),
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrNoTxInputs,
		},
		{
			name:             "no outputs",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0)}),
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrNoTxOutputs,
		},
		{
			name:             "output above max sompi",
			tx:               spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0)}, constants.MaxSompi+1),
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrBadTxOutValue,
		},
		{
			name:             "loose coinbase",
			tx:               coinbase,
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrBadCoinbaseTransaction,
		},
		{
			name:             "unfinalized",
			tx:               lockedTx,
			povHeight:        100,
			expectedCategory: externalapi.CategoryConsensusViolation,
			expectedErr:      ruleerrors.ErrUnfinalizedTx,
		},
	}

	for _, test := range tests {
		verdict := validator.ValidateTransaction(context.Background(), test.tx, utxoSet, test.povHeight, 0)
		if test.expectedCategory == externalapi.CategoryNone {
			if !verdict.Accepted {
				t.Fatalf("%s: ValidateTransaction unexpectedly failed: %s", test.name, verdict.Reason)
			}
			if verdict.Fee != test.expectedFee || test.tx.Fee != test.expectedFee {
				t.Fatalf("%s: expected fee %d, got %d (populated %d)", test.name,
					test.expectedFee, verdict.Fee, test.tx.Fee)
			}
			continue
		}
		if verdict.Accepted {
			t.Fatalf("%s: ValidateTransaction unexpectedly succeeded", test.name)
		}
		if verdict.Category != test.expectedCategory {
			t.Fatalf("%s: expected category %s, got %s (%s)", test.name,
				test.expectedCategory, verdict.Category, verdict.Reason)
		}
		if test.expectedErr != nil && !errors.Is(verdict.Reason, test.expectedErr) {
			t.Fatalf("%s: expected error %s, got %s", test.name, test.expectedErr, verdict.Reason)
		}
	}
}

func TestMissingOutpointsAreReported(t *testing.T) {
	validator, err := New(testMaturity, nil)
	if err != nil {
		t.Fatalf("New unexpectedly failed: %s", err)
	}
	tx := spendingTx([]externalapi.DomainOutpoint{outpoint(8, 0), outpoint(1, 0), outpoint(9, 3)}, 1)
	err = validator.ValidateTransactionInContextAndPopulateFee(context.Background(), tx, testUTXOSet(), 100, 0)
	missingTxOut := &ruleerrors.ErrMissingTxOut{}
	if !errors.As(err, &missingTxOut) {
		t.Fatalf("expected ErrMissingTxOut, got %v", err)
	}
	if len(missingTxOut.MissingOutpoints) != 2 {
		t.Fatalf("expected 2 missing outpoints, got %d", len(missingTxOut.MissingOutpoints))
	}
}

func TestLowestFailingInputIsReported(t *testing.T) {
	validator, err := New(testMaturity, nil)
	if err != nil {
		t.Fatalf("New unexpectedly failed: %s", err)
	}
	tx := spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0), outpoint(4, 0), outpoint(3, 0)}, 1)
	for i := 0; i < 20; i++ {
		err = validator.ValidateTransactionInContextAndPopulateFee(context.Background(), tx, testUTXOSet(), 100, 0)
		if !errors.Is(err, ruleerrors.ErrScriptResourceExceeded) {
			t.Fatalf("run %d: expected the failure of input 1, got %v", i, err)
		}
	}
}

func TestValidationIsCancellable(t *testing.T) {
	validator, err := New(testMaturity, nil)
	if err != nil {
		t.Fatalf("New unexpectedly failed: %s", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx := spendingTx([]externalapi.DomainOutpoint{outpoint(1, 0)}, 1)
	verdict := validator.ValidateTransaction(ctx, tx, testUTXOSet(), 100, 0)
	if verdict.Accepted {
		t.Fatalf("ValidateTransaction unexpectedly succeeded with a cancelled context")
	}
	if !errors.Is(verdict.Reason, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %s", verdict.Reason)
	}
}

func TestSignedTransaction(t *testing.T) {
	validator, err := New(testMaturity, nil)
	if err != nil {
		t.Fatalf("New unexpectedly failed: %s", err)
	}
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey unexpectedly failed: %s", err)
	}
	pubKey := key.PubKey().SerializeCompressed()
	scriptPublicKey, err := txscript.PayToPubKeyHashScript(txscript.PubKeyHash(pubKey))
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript unexpectedly failed: %s", err)
	}
	previousOutpoint := outpoint(7, 0)
	utxoSet := utxo.NewCollectionReader(model.UTXOCollection{
		previousOutpoint: utxo.NewUTXOEntry(10_000, scriptPublicKey, false, 1),
	})

	tx := spendingTx([]externalapi.DomainOutpoint{previousOutpoint}, 9_000)
	tx.Inputs[0].UTXOEntry = utxo.NewUTXOEntry(10_000, scriptPublicKey, false, 1)
	tx.Inputs[0].SignatureScript, err = txscript.SignatureScript(tx, 0, consensushashing.SigHashAll, key)
	if err != nil {
		t.Fatalf("SignatureScript unexpectedly failed: %s", err)
	}

	verdict := validator.ValidateTransaction(context.Background(), tx, utxoSet, 2, 0)
	if !verdict.Accepted || verdict.Fee != 1_000 {
		t.Fatalf("expected the signed transaction to be accepted with fee 1000, got %s", verdict)
	}

	tx.Outputs[0].Value = 8_000
	verdict = validator.ValidateTransaction(context.Background(), tx, utxoSet, 2, 0)
	if verdict.Accepted || !errors.Is(verdict.Reason, ruleerrors.ErrScriptValidation) {
		t.Fatalf("expected a tampered transaction to fail script validation, got %s", verdict)
	}
}
