package stitch

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:invoice|inv)[ \t]*(?:number|no|num)?[ \t]*[#:]?[ \t]*([A-Za-z]*[\-_/]?\d[A-Za-z0-9\-_/]*)\b`),
		regexp.MustCompile(`\b(INV[0-9\-_/]{3,20})\b`),
		regexp.MustCompile(`\b([A-Z]{2,4}[0-9]{3,8})\b`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})\b`),
		regexp.MustCompile(`\b(\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2})\b`),
		regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})\b`),
	}
	supplierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b([A-Z][A-Z \t&.]+(?:LTD|LIMITED|INC|CORP|LLC|CO|COMPANY))\b`),
		regexp.MustCompile(`(?im)^(?:from|supplier|company):[ \t]*([A-Za-z \t&.]+)`),
		regexp.MustCompile(`(?i)\b([A-Z][A-Z \t&.]{3,20})\s+(?:invoice|delivery|receipt)`),
	}
	pageNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bpage\s*(\d+)\s*(?:of\s*\d+)?\b`),
		regexp.MustCompile(`(?m)\b(\d+)\s*(?:of\s*\d+)?\s*$`),
	}
)

// ExtractInvoiceNumbers returns the candidate invoice numbers found in the
// text, deduplicated in first-seen order.
func ExtractInvoiceNumbers(text string) []string {
	var numbers []string
	seen := make(map[string]struct{})
	for _, pattern := range invoiceNumberPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			num := strings.TrimSpace(m[1])
			if num == "" {
				continue
			}
			if _, dup := seen[num]; dup {
				continue
			}
			seen[num] = struct{}{}
			numbers = append(numbers, num)
		}
	}
	return numbers
}

// ExtractDates returns the candidate dates found in the text, deduplicated
// in first-seen order.
func ExtractDates(text string) []string {
	var dates []string
	seen := make(map[string]struct{})
	for _, pattern := range datePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			date := strings.TrimSpace(m[1])
			if date == "" {
				continue
			}
			if _, dup := seen[date]; dup {
				continue
			}
			seen[date] = struct{}{}
			dates = append(dates, date)
		}
	}
	return dates
}

// ExtractSupplierGuess returns the first supplier-looking match, or "".
func ExtractSupplierGuess(text string) string {
	for _, pattern := range supplierPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ExtractPageNumber parses a best-effort page number from trailing
// "page N (of M)" markers. The search runs over the last lines of the text,
// where such markers live.
func ExtractPageNumber(text string) (int, bool) {
	tail := text
	if lines := strings.Split(strings.TrimSpace(text), "\n"); len(lines) > 5 {
		tail = strings.Join(lines[len(lines)-5:], "\n")
	}
	for _, pattern := range pageNumberPatterns {
		if m := pattern.FindStringSubmatch(tail); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
