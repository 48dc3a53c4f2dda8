package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/owlin/docintake/internal/common"
)

// parseRequestBody is the wire shape of one /parse call.
type parseRequestBody struct {
	Text            string `json:"text"`
	DocType         string `json:"doc_type"`
	SupplierHint    string `json:"supplier_hint,omitempty"`
	DefaultCurrency string `json:"default_currency,omitempty"`
}

// HTTPParser talks to the external invoice parser service over JSON/HTTP and
// validates its responses against a local schema before returning them.
type HTTPParser struct {
	cfg        common.ParserConfig
	httpClient *http.Client
	log        *slog.Logger
}

func NewHTTPParser(cfg common.ParserConfig, logger *slog.Logger) *HTTPParser {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &HTTPParser{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger,
	}
}

func (c *HTTPParser) Available() bool {
	return strings.TrimSpace(c.cfg.BaseURL) != ""
}

// Parse sends the segment text to the parser service and returns the
// validated invoice fields plus the raw JSON body for audit.
func (c *HTTPParser) Parse(ctx context.Context, req ParseRequest) (ParsedInvoice, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if !c.Available() {
		return ParsedInvoice{}, nil, common.NewAppError("PARSER_ERROR", "parser service not configured", common.ErrParser)
	}

	c.log.Info("parser.parse.start",
		"req_id", rid,
		"doc_type", req.DocType,
		"text_len", len(req.Text),
		"supplier_hint", req.SupplierHint,
	)

	raw, status, err := c.postParse(ctx, rid, req)
	if err != nil {
		c.log.Error("parser.parse.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ParsedInvoice{}, raw, common.NewAppError("PARSER_ERROR", "parser request failed", fmt.Errorf("%w: %w", common.ErrParser, err))
	}

	schema := BuildInvoiceJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
		c.log.Error("parser.parse.schema_validation_failed",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ParsedInvoice{}, raw, common.NewAppError("PARSER_ERROR", "parser response invalid", fmt.Errorf("%w: %w", common.ErrParser, err))
	}

	var out ParsedInvoice
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Error("parser.parse.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ParsedInvoice{}, raw, common.NewAppError("PARSER_ERROR", "decode parser response", fmt.Errorf("%w: %w", common.ErrParser, err))
	}
	if out.Currency == "" {
		out.Currency = req.DefaultCurrency
	}

	c.log.Info("parser.parse.ok",
		"req_id", rid,
		"supplier", out.SupplierName,
		"invoice_number", out.InvoiceNumber,
		"total", out.TotalAmount,
		"currency", out.Currency,
		"line_items", len(out.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, raw, nil
}

// postParse POSTs the parse payload and returns the raw response body and
// status. A non-2xx status is an error; the body is still returned for
// logging.
func (c *HTTPParser) postParse(ctx context.Context, rid string, req ParseRequest) ([]byte, int, error) {
	payload, err := json.Marshal(parseRequestBody{
		Text:            req.Text,
		DocType:         req.DocType,
		SupplierHint:    req.SupplierHint,
		DefaultCurrency: req.DefaultCurrency,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("encode parse request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/parse"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build parse request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn("parser.parse.body_close_error", "req_id", rid, "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	c.log.Info("parser.parse.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("parse endpoint returned status %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

// NullParser is the no-service stand-in. It reports unavailable and fails
// every Parse call, pushing the builder onto the regex fallback path.
type NullParser struct{}

func (NullParser) Available() bool { return false }

func (NullParser) Parse(context.Context, ParseRequest) (ParsedInvoice, []byte, error) {
	return ParsedInvoice{}, nil, fmt.Errorf("no parser service configured")
}
