package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owlin/docintake/constants"
	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/entity"
)

const invoiceText = `INVOICE
ACME SUPPLIES LTD
Invoice Number: INV-2024-001
Invoice Date: 15/01/2024
Bill To: Some Customer
Qty Description Unit Price Amount
2 Widgets 10.00 20.00
Amount Due: £20.00
Total: £20.00
Balance outstanding`

type stubModel struct {
	pred Prediction
	err  error
}

func (s stubModel) Available() bool { return true }

func (s stubModel) Predict(map[string]float64) (Prediction, error) {
	return s.pred, s.err
}

func newTestClassifier(model Model) *Classifier {
	return New(common.DefaultConfig().Classify, model, nil)
}

func TestClassifyInvoiceHeuristic(t *testing.T) {
	c := newTestClassifier(nil)

	res := c.Classify(invoiceText, entity.PageFingerprint{})
	assert.Equal(t, constants.Invoice, res.DocType)
	assert.Equal(t, MethodHeuristic, res.Method)
	assert.Greater(t, res.Confidence, 0.5)
}

func TestClassifyEmptyTextIsOther(t *testing.T) {
	c := newTestClassifier(nil)

	res := c.Classify("", entity.PageFingerprint{})
	assert.Equal(t, constants.Other, res.DocType)
	assert.Zero(t, res.Confidence)

	res = c.Classify("  \n\t ", entity.PageFingerprint{})
	assert.Equal(t, constants.Other, res.DocType)
	assert.Zero(t, res.Confidence)
}

func TestClassifyUtilityHeuristic(t *testing.T) {
	c := newTestClassifier(nil)

	text := `ENERGY BILL
Gas and electricity usage
Meter reading: 12345
Consumption: 350 kwh
Standing charge applies
1 2 3 4 5 6 7 8 9 10 11 12
Billing date: 01/02/2024`
	res := c.Classify(text, entity.PageFingerprint{})
	assert.Equal(t, constants.Utility, res.DocType)
}

func TestModelWinsWhenConfident(t *testing.T) {
	model := stubModel{pred: Prediction{
		Label:      constants.Delivery,
		Confidence: 0.9,
	}}
	c := newTestClassifier(model)

	res := c.Classify(invoiceText, entity.PageFingerprint{})
	assert.Equal(t, constants.Delivery, res.DocType)
	assert.Equal(t, MethodModel, res.Method)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestModelInTieBandNeedsClearMargin(t *testing.T) {
	// 0.6 is in the tie band; it only wins by beating the heuristic by more
	// than the configured margin. Against a strong heuristic invoice score
	// it must lose.
	model := stubModel{pred: Prediction{
		Label:      constants.Delivery,
		Confidence: 0.6,
	}}
	c := newTestClassifier(model)

	res := c.Classify(invoiceText, entity.PageFingerprint{})
	assert.Equal(t, constants.Invoice, res.DocType)
	assert.Equal(t, MethodHeuristic, res.Method)
}

func TestModelInTieBandWinsAgainstWeakHeuristic(t *testing.T) {
	model := stubModel{pred: Prediction{
		Label:      constants.Receipt,
		Confidence: 0.6,
	}}
	c := newTestClassifier(model)

	// Text with no heuristic signal at all.
	res := c.Classify("nothing recognizable here at all whatsoever today", entity.PageFingerprint{})
	assert.Equal(t, constants.Receipt, res.DocType)
	assert.Equal(t, MethodModel, res.Method)
}

func TestModelSynonymLabelIsCanonicalized(t *testing.T) {
	model := stubModel{pred: Prediction{
		Label:      constants.DocType("delivery note"),
		Confidence: 0.9,
	}}
	c := newTestClassifier(model)

	res := c.Classify(invoiceText, entity.PageFingerprint{})
	assert.Equal(t, constants.Delivery, res.DocType)
	assert.Equal(t, MethodModel, res.Method)
}

func TestModelUnknownLabelFallsBackToHeuristic(t *testing.T) {
	model := stubModel{pred: Prediction{
		Label:      constants.DocType("bananas"),
		Confidence: 0.95,
	}}
	c := newTestClassifier(model)

	res := c.Classify(invoiceText, entity.PageFingerprint{})
	assert.Equal(t, constants.Invoice, res.DocType)
	assert.Equal(t, MethodHeuristic, res.Method)
}

func TestModelFailureFallsBackToHeuristic(t *testing.T) {
	model := stubModel{err: ErrModelUnavailable}
	c := newTestClassifier(model)

	res := c.Classify(invoiceText, entity.PageFingerprint{})
	assert.Equal(t, constants.Invoice, res.DocType)
	assert.Equal(t, MethodHeuristic, res.Method)
}

func TestMixedKeywordsStrongerInvoiceSignalWins(t *testing.T) {
	c := newTestClassifier(nil)

	// Carries delivery vocabulary but also an invoice number and totals, so
	// the invoice score strictly exceeds the delivery score.
	text := `INVOICE
Invoice Number: INV-42
Delivery note attached, goods received, delivery date 12/01/2024, received by J Smith
Qty Description Amount
Total: £99.00
Amount Due: £99.00
Balance: £99.00
Invoice to: Customer`
	res := c.Classify(text, entity.PageFingerprint{})
	require.Equal(t, constants.Invoice, res.DocType)
	assert.Greater(t, res.Scores[string(constants.Invoice)], res.Scores[string(constants.Delivery)])
}

func TestReceiptShapeSignal(t *testing.T) {
	c := newTestClassifier(nil)

	text := `RECEIPT
Thank you for your payment
Transaction complete
Purchase total £5.00`
	// Narrow aspect ratio marks a till-roll shape.
	fp := entity.PageFingerprint{AspectRatio: 0.4}
	res := c.Classify(text, fp)
	assert.Equal(t, constants.Receipt, res.DocType)
}

func TestExtractFeatures(t *testing.T) {
	f := ExtractFeatures(invoiceText, entity.PageFingerprint{AspectRatio: 0.7})

	assert.Greater(t, f.KeywordHits[constants.Invoice], 2)
	assert.Greater(t, f.InvoiceNumberCount, 0)
	assert.Greater(t, f.TotalAmountCount, 0)
	assert.Greater(t, f.SupplierCount, 0)
	assert.True(t, f.IsReceiptShape)
	assert.True(t, f.HasHeaderKeyword)

	m := f.Map()
	assert.Equal(t, float64(f.InvoiceNumberCount), m["invoice_number_count"])
	assert.Equal(t, 1.0, m["is_receipt_shape"])
}
