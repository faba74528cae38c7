package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

type Rendered struct {
	Subject string
	HTML    string
}

// Renderer turns an invoice notice into an email. Amounts are grouped
// according to the configured locale and suffixed with the currency symbol.
type Renderer struct {
	tpl     *template.Template
	lang    language.Tag
	printer *message.Printer
	symbol  string
}

func NewRenderer(locale, symbol string) (*Renderer, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.Vietnamese
	}

	r := &Renderer{
		lang:    tag,
		printer: message.NewPrinter(tag),
		symbol:  strings.TrimSpace(symbol),
	}
	funcs := template.FuncMap{
		"formatMoney": r.formatMoney,
		"formatDate":  formatDate,
	}
	tpl, err := template.New("invoice_email.html").Funcs(funcs).ParseFS(templateFS, "templates/invoice_email.html")
	if err != nil {
		return nil, err
	}
	r.tpl = tpl
	return r, nil
}

func (r *Renderer) RenderInvoice(notice invoicedomain.Notice) (Rendered, error) {
	var buf bytes.Buffer
	data := struct {
		Lang   string
		Notice invoicedomain.Notice
	}{
		Lang:   r.lang.String(),
		Notice: notice,
	}
	if err := r.tpl.Execute(&buf, data); err != nil {
		return Rendered{}, fmt.Errorf("render invoice email: %w", err)
	}

	return Rendered{
		Subject: fmt.Sprintf("Invoice %s for room %s (%s)", notice.InvoiceNumber, notice.RoomNumber, notice.Period),
		HTML:    buf.String(),
	}, nil
}

func (r *Renderer) formatMoney(amount int64) string {
	out := r.printer.Sprintf("%d", amount)
	if r.symbol == "" {
		return out
	}
	return out + " " + r.symbol
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format(time.DateOnly)
}
