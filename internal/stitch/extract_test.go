package stitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractInvoiceNumbers(t *testing.T) {
	text := `INVOICE
Invoice Number: INV-2024-001
Ref INV-2024-001 repeated
Order AB1234`

	numbers := ExtractInvoiceNumbers(text)
	assert.Contains(t, numbers, "INV-2024-001")
	assert.Contains(t, numbers, "AB1234")

	// First-seen dedup: the repeat must not appear twice.
	count := 0
	for _, n := range numbers {
		if n == "INV-2024-001" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractDates(t *testing.T) {
	text := "Dated: 15/01/2024, due 2024-02-15, posted 3 March 2024"

	dates := ExtractDates(text)
	assert.Contains(t, dates, "15/01/2024")
	assert.Contains(t, dates, "3 March 2024")
}

func TestExtractSupplierGuess(t *testing.T) {
	assert.Equal(t, "ACME SUPPLIES LTD", ExtractSupplierGuess("From ACME SUPPLIES LTD with thanks"))
	assert.Equal(t, "", ExtractSupplierGuess("no supplier in sight"))
}

func TestExtractPageNumber(t *testing.T) {
	n, ok := ExtractPageNumber("INVOICE\nsome content\npage 2 of 3")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = ExtractPageNumber("INVOICE\nsome content\n3")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = ExtractPageNumber("no markers here")
	assert.False(t, ok)
}

func TestExtractPageNumberOnlySearchesTail(t *testing.T) {
	text := "page 1 of 9\na\nb\nc\nd\ne\nf\ng"
	_, ok := ExtractPageNumber(text)
	assert.False(t, ok, "markers outside the last lines are ignored")
}
