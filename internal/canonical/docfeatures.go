package canonical

import (
	"regexp"
	"strings"

	"github.com/owlin/docintake/constants"
)

var (
	reDeliveryDate = regexp.MustCompile(`(?i)(?:delivered|delivery)\s+(?:on|date)?\s*:?\s*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`)
	reReceivedBy   = regexp.MustCompile(`(?i)(?:received|signed)\s+(?:by|for)\s*:?\s*([A-Za-z\s]+)`)

	reTransactionID = regexp.MustCompile(`(?i)(?:transaction|ref|reference)\s*#?\s*:?\s*([A-Za-z0-9\-_/]{4,})`)

	reMeterReading  = regexp.MustCompile(`(?i)(?:meter|reading|current|previous)\s*:?\s*(\d+)`)
	reConsumption   = regexp.MustCompile(`(?i)(?:consumption|usage)\s*:?\s*(\d+(?:\.\d+)?)\s*(kwh|kw|units?)`)
	reBillingPeriod = regexp.MustCompile(`(?i)(?:from|between)\s+(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})\s+(?:to|and)\s+(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`)
)

var paymentMethods = []string{"cash", "card", "credit", "debit", "paypal", "bank transfer"}

// extractDocumentFeatures pulls type-specific fields out of the combined
// text for non-invoice documents. Missing fields are simply omitted.
func extractDocumentFeatures(text string, docType constants.DocType) map[string]any {
	features := map[string]any{}

	switch docType {
	case constants.Delivery:
		if m := reDeliveryDate.FindStringSubmatch(text); m != nil {
			features["delivery_date"] = m[1]
		}
		if m := reReceivedBy.FindStringSubmatch(text); m != nil {
			features["received_by"] = strings.TrimSpace(m[1])
		}
	case constants.Receipt:
		if m := reTransactionID.FindStringSubmatch(text); m != nil {
			features["transaction_id"] = m[1]
		}
		if method := detectPaymentMethod(text); method != "" {
			features["payment_method"] = method
		}
	case constants.Utility:
		if m := reMeterReading.FindStringSubmatch(text); m != nil {
			features["meter_reading"] = m[1]
		}
		if m := reConsumption.FindStringSubmatch(text); m != nil {
			features["consumption"] = m[1] + " " + strings.ToLower(m[2])
		}
		if m := reBillingPeriod.FindStringSubmatch(text); m != nil {
			features["billing_period"] = m[1] + " to " + m[2]
		}
	}

	return features
}

func detectPaymentMethod(text string) string {
	lower := strings.ToLower(text)
	for _, method := range paymentMethods {
		if strings.Contains(lower, method) {
			return strings.ToUpper(method[:1]) + method[1:]
		}
	}
	return ""
}
