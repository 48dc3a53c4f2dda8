package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/owlin/docintake/constants"
	"github.com/owlin/docintake/internal/entity"
)

// Page artifacts follow "<name>.page<N>.txt" with an optional sibling image
// "<name>.page<N>.png" (or jpg/jpeg).
var rePageText = regexp.MustCompile(`^(.+)\.page(\d+)\.` + constants.OCRTextExtension + `$`)

// loadBatch scans dir for per-page OCR artifacts and assembles one BatchFile
// per logical file, pages ordered by page index.
func loadBatch(dir string, logger *slog.Logger) ([]entity.BatchFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	type pageRef struct {
		index int
		path  string
	}
	pagesByFile := map[string][]pageRef{}
	uploadedAt := map[string]time.Time{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := rePageText.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		base := m[1]
		pagesByFile[base] = append(pagesByFile[base], pageRef{index: index, path: filepath.Join(dir, entry.Name())})

		if info, err := entry.Info(); err == nil {
			if ts, ok := uploadedAt[base]; !ok || info.ModTime().Before(ts) {
				uploadedAt[base] = info.ModTime()
			}
		}
	}

	baseNames := make([]string, 0, len(pagesByFile))
	for base := range pagesByFile {
		baseNames = append(baseNames, base)
	}
	sort.Strings(baseNames)

	var files []entity.BatchFile
	for _, base := range baseNames {
		refs := pagesByFile[base]
		sort.Slice(refs, func(i, j int) bool { return refs[i].index < refs[j].index })

		file := entity.BatchFile{
			ID:         base,
			Path:       filepath.Join(dir, base),
			UploadedAt: uploadedAt[base],
		}
		if file.UploadedAt.IsZero() {
			file.UploadedAt = time.Now().UTC()
		}

		for _, ref := range refs {
			text, err := os.ReadFile(ref.path)
			if err != nil {
				return nil, fmt.Errorf("read page text %s: %w", ref.path, err)
			}
			img := loadPageImage(dir, base, ref.index, logger)
			file.Pages = append(file.Pages, entity.PageInput{Image: img, Text: string(text)})
		}
		files = append(files, file)
	}

	return files, nil
}

// loadPageImage returns the decoded sibling image for a page, or nil when no
// image artifact exists or it cannot be decoded.
func loadPageImage(dir, base string, index int, logger *slog.Logger) image.Image {
	for ext := range constants.AllowedImageExtensions {
		path := filepath.Join(dir, fmt.Sprintf("%s.page%d.%s", base, index, ext))
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logger.Warn("batch.image_decode_failed", "path", path, "error", err)
			return nil
		}
		return img
	}
	return nil
}
