package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/smallbiznis/rentbill/internal/period"
)

var roomTokenRe = regexp.MustCompile(`[^A-Z0-9-]+`)

const DefaultInvoiceNumberTemplate = "INV-{YYYY}{MM}-{ROOM}"

// FormatInvoiceNumber renders a human-readable invoice number from the
// billing period and room number. It has no side effects.
func FormatInvoiceNumber(template string, p period.Period, roomNumber string) (string, error) {
	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}
	if p.IsZero() {
		return "", fmt.Errorf("invoice number: zero period")
	}

	room := roomTokenRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(roomNumber)), "")
	if room == "" {
		return "", fmt.Errorf("invoice number: empty room number")
	}

	start := p.Start(nil)
	out := template
	out = strings.ReplaceAll(out, "{YYYY}", start.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", start.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", start.Format("01"))
	out = strings.ReplaceAll(out, "{ROOM}", room)

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}
