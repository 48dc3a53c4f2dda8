package classify

import (
	"log/slog"
	"strings"

	"github.com/owlin/docintake/constants"
	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/entity"
)

// Methods recorded on classification results.
const (
	MethodModel     = "model"
	MethodHeuristic = "heuristic"
	MethodFallback  = "fallback"
)

// Result is one page's classification.
type Result struct {
	DocType    constants.DocType
	Confidence float64
	Scores     map[string]float64
	Features   Features
	Method     string
}

// Classifier assigns a document-type label per page. A heuristic scorer
// always runs; a trained model, when available, may override it per the
// configured decision policy.
type Classifier struct {
	cfg    common.ClassifyConfig
	model  Model
	logger *slog.Logger
}

func New(cfg common.ClassifyConfig, model Model, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if model == nil {
		model = NullModel{}
	}
	return &Classifier{cfg: cfg, model: model, logger: logger}
}

// Classify labels one page. It never returns an error: any internal failure
// degrades to ("other", 0), as does a page with no recognized text.
func (c *Classifier) Classify(text string, fp entity.PageFingerprint) Result {
	features := ExtractFeatures(text, fp)
	if strings.TrimSpace(text) == "" {
		return Result{
			DocType:  constants.Other,
			Scores:   map[string]float64{},
			Features: features,
			Method:   MethodFallback,
		}
	}
	heuristic := c.classifyHeuristic(features)

	if !c.model.Available() {
		return heuristic
	}

	pred, err := c.model.Predict(features.Map())
	if err != nil {
		c.logger.Warn("classify.model_failed", "error", err)
		return heuristic
	}

	// Models may emit synonym or unknown labels; only canonical types pass.
	label, known := constants.Canonicalize(string(pred.Label))
	if !known {
		c.logger.Warn("classify.model_unknown_label", "label", pred.Label)
		return heuristic
	}

	model := Result{
		DocType:    label,
		Confidence: pred.Confidence,
		Scores:     distributionScores(pred.Distribution),
		Features:   features,
		Method:     MethodModel,
	}

	// Decision policy: trust the model outright when confident, consult the
	// heuristic in the tie band, otherwise stay heuristic.
	switch {
	case pred.Confidence > c.cfg.ModelMinHigh:
		return model
	case pred.Confidence > c.cfg.ModelMinTie && pred.Confidence > heuristic.Confidence+c.cfg.ModelTieMargin:
		return model
	default:
		return heuristic
	}
}

// classifyHeuristic computes the additive weighted score per document type.
func (c *Classifier) classifyHeuristic(f Features) Result {
	scores := make(map[string]float64)
	for _, dt := range constants.AsStringSlice() {
		scores[dt] = 0
	}

	if f.KeywordHits[constants.Invoice] > 2 {
		scores[string(constants.Invoice)] += 0.4
	}
	if f.InvoiceNumberCount > 0 {
		scores[string(constants.Invoice)] += 0.3
	}
	if f.TotalAmountCount > 0 {
		scores[string(constants.Invoice)] += 0.2
	}
	if f.TableDensity > 0.1 {
		scores[string(constants.Invoice)] += 0.1
	}

	if f.KeywordHits[constants.Delivery] > 2 {
		scores[string(constants.Delivery)] += 0.5
	}
	if f.SupplierCount > 0 {
		scores[string(constants.Delivery)] += 0.2
	}
	if f.TextLength > 200 {
		scores[string(constants.Delivery)] += 0.1
	}

	if f.KeywordHits[constants.Receipt] > 2 {
		scores[string(constants.Receipt)] += 0.4
	}
	if f.IsReceiptShape {
		scores[string(constants.Receipt)] += 0.3
	}
	if f.CurrencyCount > 0 {
		scores[string(constants.Receipt)] += 0.1
	}
	if f.TextLength < 500 {
		scores[string(constants.Receipt)] += 0.1
	}

	if f.KeywordHits[constants.Utility] > 2 {
		scores[string(constants.Utility)] += 0.5
	}
	if f.NumberCount > 10 {
		scores[string(constants.Utility)] += 0.2
	}
	if f.DateCount > 0 {
		scores[string(constants.Utility)] += 0.1
	}

	// Deterministic winner: iterate in declared type order, strict greater
	// replaces, so ties resolve to the earliest type.
	best := constants.Other
	bestScore := scores[string(constants.Other)]
	for _, dt := range []constants.DocType{constants.Invoice, constants.Delivery, constants.Receipt, constants.Utility} {
		if scores[string(dt)] > bestScore {
			best = dt
			bestScore = scores[string(dt)]
		}
	}

	confidence := bestScore
	if confidence > 1 {
		confidence = 1
	}
	return Result{
		DocType:    best,
		Confidence: confidence,
		Scores:     scores,
		Features:   f,
		Method:     MethodHeuristic,
	}
}

func distributionScores(dist map[constants.DocType]float64) map[string]float64 {
	scores := make(map[string]float64, len(dist))
	for dt, p := range dist {
		scores[string(dt)] = p
	}
	return scores
}
