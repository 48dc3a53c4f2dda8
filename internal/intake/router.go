package intake

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/owlin/docintake/internal/canonical"
	"github.com/owlin/docintake/internal/classify"
	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/dedupe"
	"github.com/owlin/docintake/internal/entity"
	"github.com/owlin/docintake/internal/fingerprint"
	"github.com/owlin/docintake/internal/metrics"
	"github.com/owlin/docintake/internal/parser"
	"github.com/owlin/docintake/internal/segment"
	"github.com/owlin/docintake/internal/stitch"
)

// Stage names, in pipeline order.
const (
	StageFingerprint = "fingerprint"
	StageClassify    = "classify"
	StageDedupe      = "dedupe"
	StageStitch      = "stitch"
	StageCanonical   = "canonical"
	StageValidate    = "validate"
)

// Router runs the six-stage intake pipeline over a batch of uploaded files.
// Stages one through five are fatal on error; validation only warns.
type Router struct {
	cfg           *common.Config
	fingerprinter *fingerprint.Fingerprinter
	classifier    *classify.Classifier
	deduper       *dedupe.Deduper
	segmenter     *segment.Segmenter
	stitcher      *stitch.Stitcher
	builder       *canonical.Builder
	logger        *slog.Logger
}

func NewRouter(cfg *common.Config, model classify.Model, invParser parser.InvoiceParser, logger *slog.Logger) *Router {
	if cfg == nil {
		cfg = common.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:           cfg,
		fingerprinter: fingerprint.New(cfg.Fingerprint, logger),
		classifier:    classify.New(cfg.Classify, model, logger),
		deduper:       dedupe.New(cfg.Dedupe, cfg.Intake.FullScanBelow, logger),
		segmenter:     segment.New(logger),
		stitcher:      stitch.New(cfg.Stitch, cfg.Intake.FullScanBelow, logger),
		builder:       canonical.New(cfg.Canonical, invParser, logger),
		logger:        logger,
	}
}

// ProcessBatch runs the full pipeline. It always returns a well-formed
// result; failures are reported through Success and Errors. Cancellation is
// honored between stages, never inside one.
func (r *Router) ProcessBatch(ctx context.Context, files []entity.BatchFile) entity.IntakeResult {
	start := time.Now()
	warnings := []string{}
	errors := []string{}

	r.logger.Info("intake.batch_start", "files", len(files))

	fail := func(stage string, err error) entity.IntakeResult {
		errors = append(errors, fmt.Sprintf("%s failed: %v", stage, err))
		metrics.BatchesTotal.WithLabelValues("failed").Inc()
		r.logger.Error("intake.batch_failed", "stage", stage, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.IntakeResult{
			Success:            false,
			CanonicalInvoices:  []entity.CanonicalInvoice{},
			CanonicalDocuments: []entity.CanonicalDocument{},
			DuplicateGroups:    []entity.DuplicateGroup{},
			StitchGroups:       []entity.StitchGroup{},
			ProcessingTime:     time.Since(start),
			Warnings:           warnings,
			Errors:             errors,
			Metadata:           entity.IntakeMetadata{FilesProcessed: len(files)},
		}
	}

	// Stage 1: fingerprint every page.
	var pages []entity.Page
	if err := r.runStage(ctx, StageFingerprint, func() error {
		var err error
		pages, err = r.fingerprintPages(ctx, files)
		return err
	}); err != nil {
		return fail(StageFingerprint, err)
	}
	metrics.PagesProcessedTotal.Add(float64(len(pages)))

	// Stage 2: classify every page.
	if err := r.runStage(ctx, StageClassify, func() error {
		return r.classifyPages(ctx, pages)
	}); err != nil {
		return fail(StageClassify, err)
	}

	// Stage 3: page-level deduplication. Groups are diagnostics for review
	// routing; duplicate pages still flow into stitching.
	var dupGroups []entity.DuplicateGroup
	if err := r.runStage(ctx, StageDedupe, func() error {
		dupGroups = r.deduper.Dedupe(pageItems(pages), entity.DuplicatePage)
		return nil
	}); err != nil {
		return fail(StageDedupe, err)
	}
	duplicatesFound := 0
	for _, g := range dupGroups {
		duplicatesFound += g.Size() - 1
	}
	metrics.DuplicatesFoundTotal.WithLabelValues(string(entity.DuplicatePage)).Add(float64(duplicatesFound))

	// Stage 4: segment each file, then stitch segments across files.
	var stitchGroups []entity.StitchGroup
	if err := r.runStage(ctx, StageStitch, func() error {
		stitchGroups = r.stitcher.Stitch(r.segmentPages(pages))
		return nil
	}); err != nil {
		return fail(StageStitch, err)
	}
	for _, g := range stitchGroups {
		if len(g.Segments) > 1 {
			metrics.SegmentsStitchedTotal.Add(float64(len(g.Segments)))
		}
	}

	// Stage 5: build canonical entities.
	var invoices []entity.CanonicalInvoice
	var documents []entity.CanonicalDocument
	if err := r.runStage(ctx, StageCanonical, func() error {
		var buildWarnings []string
		invoices, documents, buildWarnings = r.builder.Build(ctx, stitchGroups)
		warnings = append(warnings, buildWarnings...)
		return nil
	}); err != nil {
		return fail(StageCanonical, err)
	}

	// Stage 6: validation never fails the batch.
	if err := r.runStage(ctx, StageValidate, func() error {
		warnings = append(warnings, validateEntities(invoices)...)
		return nil
	}); err != nil {
		warnings = append(warnings, fmt.Sprintf("validation failed: %v", err))
	}

	metrics.BatchesTotal.WithLabelValues("ok").Inc()
	r.logger.Info("intake.batch_done",
		"files", len(files),
		"pages", len(pages),
		"duplicates", duplicatesFound,
		"stitch_groups", len(stitchGroups),
		"invoices", len(invoices),
		"documents", len(documents),
		"warnings", len(warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return entity.IntakeResult{
		Success:            true,
		CanonicalInvoices:  invoices,
		CanonicalDocuments: documents,
		DuplicateGroups:    dupGroups,
		StitchGroups:       stitchGroups,
		ProcessingTime:     time.Since(start),
		Warnings:           warnings,
		Errors:             errors,
		Metadata: entity.IntakeMetadata{
			FilesProcessed:           len(files),
			PagesProcessed:           len(pages),
			DuplicatesFound:          duplicatesFound,
			StitchGroupsCreated:      len(stitchGroups),
			CanonicalEntitiesCreated: len(invoices) + len(documents),
		},
	}
}

// runStage times one stage, converts panics into stage errors and checks
// for cancellation before starting.
func (r *Router) runStage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return common.WrapError(err, name+" not started")
	}

	start := time.Now()
	r.logger.Info("intake.stage_start", "stage", name)

	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = common.NewAppError("STAGE_FAILED", fmt.Sprintf("%s panicked: %v", name, p), common.ErrStageFailed)
			}
		}()
		return fn()
	}()

	status := "ok"
	if err != nil {
		status = "failed"
	}
	metrics.StageDuration.WithLabelValues(name, status).Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Error("intake.stage_failed", "stage", name, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return err
	}
	r.logger.Info("intake.stage_done", "stage", name, "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// fingerprintPages computes a fingerprint for every page of every file,
// fanning out across pages while keeping deterministic output order.
func (r *Router) fingerprintPages(ctx context.Context, files []entity.BatchFile) ([]entity.Page, error) {
	var pages []entity.Page
	for _, file := range files {
		for i, in := range file.Pages {
			pages = append(pages, entity.Page{
				ID:         fmt.Sprintf("%s_page_%d", file.ID, i),
				FileID:     file.ID,
				FilePath:   file.Path,
				PageIndex:  i,
				Text:       in.Text,
				UploadedAt: file.UploadedAt,
			})
		}
	}

	inputs := make([]entity.PageInput, 0, len(pages))
	for _, file := range files {
		inputs = append(inputs, file.Pages...)
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism())
	for i := range pages {
		i := i
		g.Go(func() error {
			pages[i].Fingerprint = r.fingerprinter.ComputeFingerprint(inputs[i].Image, inputs[i].Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// classifyPages assigns a doc type to every page in place.
func (r *Router) classifyPages(ctx context.Context, pages []entity.Page) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism())
	for i := range pages {
		i := i
		g.Go(func() error {
			res := r.classifier.Classify(pages[i].Text, pages[i].Fingerprint)
			pages[i].DocType = res.DocType
			pages[i].ClassificationConfidence = res.Confidence
			pages[i].ClassificationMethod = res.Method
			pages[i].ClassificationScores = res.Scores
			return nil
		})
	}
	return g.Wait()
}

// segmentPages groups pages by file and segments each file independently.
// Files are processed in sorted id order so segment output is deterministic.
func (r *Router) segmentPages(pages []entity.Page) []entity.Segment {
	byFile := map[string][]entity.Page{}
	for _, p := range pages {
		byFile[p.FileID] = append(byFile[p.FileID], p)
	}
	fileIDs := make([]string, 0, len(byFile))
	for id := range byFile {
		fileIDs = append(fileIDs, id)
	}
	sort.Strings(fileIDs)

	var segments []entity.Segment
	for _, id := range fileIDs {
		segments = append(segments, r.segmenter.SegmentFile(byFile[id])...)
	}
	return segments
}

func (r *Router) parallelism() int {
	if r.cfg.Intake.MaxParallel > 0 {
		return r.cfg.Intake.MaxParallel
	}
	return runtime.NumCPU()
}

func pageItems(pages []entity.Page) []dedupe.Item {
	items := make([]dedupe.Item, 0, len(pages))
	for _, p := range pages {
		items = append(items, dedupe.Item{
			ID:            p.ID,
			PHash:         p.Fingerprint.PHash,
			HeaderSimhash: p.Fingerprint.HeaderSimhash,
			FooterSimhash: p.Fingerprint.FooterSimhash,
			TextHash:      p.Fingerprint.TextHash,
		})
	}
	return items
}

// validateEntities runs the non-fatal sanity checks over built invoices.
func validateEntities(invoices []entity.CanonicalInvoice) []string {
	var warnings []string
	for _, inv := range invoices {
		if inv.SupplierName == "" {
			warnings = append(warnings, fmt.Sprintf("invoice %s missing supplier name", inv.ID))
		}
		if inv.InvoiceNumber == "" {
			warnings = append(warnings, fmt.Sprintf("invoice %s missing invoice number", inv.ID))
		}
		if inv.Total <= 0 {
			warnings = append(warnings, fmt.Sprintf("invoice %s has non-positive total", inv.ID))
		}
	}
	return warnings
}
