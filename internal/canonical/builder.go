package canonical

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/owlin/docintake/constants"
	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/entity"
	"github.com/owlin/docintake/internal/metrics"
	"github.com/owlin/docintake/internal/parser"
)

const (
	// MethodParser marks entities built from a parser-service response.
	MethodParser = "parser_service"
	// MethodRules marks entities built by the regex fallback.
	MethodRules = "rule_based"

	defaultCurrency = "GBP"

	// Rule-based extraction is less trustworthy than the parser service, so
	// entity confidence is scaled down on that path.
	rulesConfidenceFactor = 0.8

	// Per-field confidence when the parser service does not report one.
	parserFieldConfidence = 0.9
)

// Builder turns sufficiently confident stitch groups into canonical invoice
// and document entities.
type Builder struct {
	cfg    common.CanonicalConfig
	parser parser.InvoiceParser
	logger *slog.Logger
}

func New(cfg common.CanonicalConfig, p parser.InvoiceParser, logger *slog.Logger) *Builder {
	if p == nil {
		p = parser.NullParser{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, parser: p, logger: logger}
}

// Build processes every stitch group: invoice groups become
// CanonicalInvoices, everything else becomes CanonicalDocuments. Groups
// below the confidence floor are skipped with a warning. Build never fails;
// per-group problems are reported through the returned warnings.
func (b *Builder) Build(ctx context.Context, groups []entity.StitchGroup) ([]entity.CanonicalInvoice, []entity.CanonicalDocument, []string) {
	var invoices []entity.CanonicalInvoice
	var documents []entity.CanonicalDocument
	var warnings []string

	for _, group := range groups {
		if group.Confidence < b.cfg.MinConfidence {
			warnings = append(warnings, fmt.Sprintf("skipped low-confidence group %s (%.2f)", group.GroupID, group.Confidence))
			b.logger.Warn("canonical.group_skipped", "group_id", group.GroupID, "confidence", group.Confidence)
			continue
		}

		if group.DocType == constants.Invoice {
			invoices = append(invoices, b.buildInvoice(ctx, group))
		} else {
			documents = append(documents, b.buildDocument(group))
		}
	}

	b.logger.Info("canonical.done",
		"groups", len(groups),
		"invoices", len(invoices),
		"documents", len(documents),
		"skipped", len(warnings),
	)
	return invoices, documents, warnings
}

func (b *Builder) buildInvoice(ctx context.Context, group entity.StitchGroup) entity.CanonicalInvoice {
	text, sourceSegments, sourcePages := combineSegments(group.Segments)

	if b.parser.Available() {
		req := parser.ParseRequest{
			Text:            text,
			DocType:         string(group.DocType),
			SupplierHint:    group.SupplierGuess,
			DefaultCurrency: defaultCurrency,
		}
		parsed, _, err := b.parser.Parse(ctx, req)
		if err == nil {
			return b.invoiceFromParser(parsed, group, sourceSegments, sourcePages)
		}
		metrics.ParserFallbackTotal.Inc()
		b.logger.Warn("canonical.parser_fallback", "group_id", group.GroupID, "error", err)
	}

	rules := extractWithRules(text, defaultCurrency)
	return b.invoiceFromRules(rules, group, sourceSegments, sourcePages)
}

func (b *Builder) invoiceFromParser(parsed parser.ParsedInvoice, group entity.StitchGroup, sourceSegments []string, sourcePages []int) entity.CanonicalInvoice {
	currency := parsed.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	fieldConf := map[string]float64{}
	perField := parsed.Confidence
	if perField <= 0 {
		perField = parserFieldConfidence
	}
	if parsed.SupplierName != "" {
		fieldConf["supplier_name"] = perField
	}
	if parsed.InvoiceNumber != "" {
		fieldConf["invoice_number"] = perField
	}
	if parsed.InvoiceDate != "" {
		fieldConf["invoice_date"] = perField
	}
	if parsed.TotalAmount != 0 {
		fieldConf["total"] = perField
	}

	subtotal := 0.0
	if parsed.TotalAmount > 0 && parsed.VATAmount > 0 {
		subtotal = parsed.TotalAmount - parsed.VATAmount
	}

	items := make([]entity.LineItem, 0, len(parsed.LineItems))
	for _, li := range parsed.LineItems {
		items = append(items, entity.LineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Amount:      li.Total,
		})
	}

	return entity.CanonicalInvoice{
		ID:               "canonical_inv_" + group.GroupID,
		SupplierName:     parsed.SupplierName,
		InvoiceNumber:    parsed.InvoiceNumber,
		InvoiceDate:      parsed.InvoiceDate,
		Currency:         currency,
		Subtotal:         subtotal,
		Tax:              parsed.VATAmount,
		Total:            parsed.TotalAmount,
		LineItems:        items,
		FieldConfidence:  fieldConf,
		ExtractionMethod: MethodParser,
		SourceSegments:   sourceSegments,
		SourcePages:      sourcePages,
		Confidence:       group.Confidence,
		CreatedAt:        time.Now().UTC(),
	}
}

func (b *Builder) invoiceFromRules(rules fallbackResult, group entity.StitchGroup, sourceSegments []string, sourcePages []int) entity.CanonicalInvoice {
	return entity.CanonicalInvoice{
		ID:               "canonical_inv_" + group.GroupID,
		SupplierName:     rules.SupplierName,
		InvoiceNumber:    rules.InvoiceNumber,
		InvoiceDate:      rules.InvoiceDate,
		Currency:         rules.Currency,
		Total:            rules.Total,
		FieldConfidence:  rules.FieldConfidence,
		ExtractionMethod: MethodRules,
		SourceSegments:   sourceSegments,
		SourcePages:      sourcePages,
		Confidence:       group.Confidence * rulesConfidenceFactor,
		CreatedAt:        time.Now().UTC(),
	}
}

func (b *Builder) buildDocument(group entity.StitchGroup) entity.CanonicalDocument {
	text, sourceSegments, sourcePages := combineSegments(group.Segments)

	documentNumber := ""
	if len(group.InvoiceNumbers) > 0 {
		documentNumber = group.InvoiceNumbers[0]
	}
	documentDate := ""
	if len(group.Dates) > 0 {
		documentDate = group.Dates[0]
	}

	return entity.CanonicalDocument{
		ID:             "canonical_doc_" + group.GroupID,
		DocType:        group.DocType,
		SupplierName:   group.SupplierGuess,
		DocumentNumber: documentNumber,
		DocumentDate:   documentDate,
		Content: entity.DocumentContent{
			Text:          text,
			SegmentsCount: len(group.Segments),
			Features:      extractDocumentFeatures(text, group.DocType),
		},
		Confidence:     group.Confidence,
		SourceSegments: sourceSegments,
		SourcePages:    sourcePages,
		CreatedAt:      time.Now().UTC(),
	}
}

// combineSegments joins the group's segment texts with per-segment markers
// and collects provenance ids and page numbers in segment order.
func combineSegments(segments []entity.Segment) (string, []string, []int) {
	var text string
	sourceSegments := make([]string, 0, len(segments))
	var sourcePages []int

	for _, seg := range segments {
		sourceSegments = append(sourceSegments, seg.ID)
		if seg.Text != "" {
			text += fmt.Sprintf("\n--- SEGMENT %s ---\n%s", seg.ID, seg.Text)
		}
		sourcePages = append(sourcePages, seg.PageNumbers...)
	}
	return text, sourceSegments, sourcePages
}
