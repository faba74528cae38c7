package notification

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingProvider struct {
	sent []Message
	err  error
}

func (p *recordingProvider) Send(_ context.Context, msg Message) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func sampleNotice() invoicedomain.Notice {
	return invoicedomain.Notice{
		InvoiceID:      42,
		InvoiceNumber:  "INV-202502-101",
		ToEmail:        "an@example.com",
		TenantName:     "Nguyen Van An",
		RoomNumber:     "101",
		Period:         "2025-02",
		RoomPrice:      3_000_000,
		ElectricAmount: 150_000,
		WaterAmount:    200_000,
		TotalAmount:    3_350_000,
		DueDate:        time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderInvoiceFormatsAmounts(t *testing.T) {
	r, err := NewRenderer("en", "₫")
	require.NoError(t, err)

	out, err := r.RenderInvoice(sampleNotice())
	require.NoError(t, err)

	assert.Equal(t, "Invoice INV-202502-101 for room 101 (2025-02)", out.Subject)
	assert.Contains(t, out.HTML, "3,350,000 ₫")
	assert.Contains(t, out.HTML, "150,000 ₫")
	assert.Contains(t, out.HTML, "2025-02-08")
	assert.Contains(t, out.HTML, "Nguyen Van An")
}

func TestRenderInvoiceEscapesTenantName(t *testing.T) {
	r, err := NewRenderer("en", "")
	require.NoError(t, err)

	notice := sampleNotice()
	notice.TenantName = "<script>alert(1)</script>"
	out, err := r.RenderInvoice(notice)
	require.NoError(t, err)
	assert.NotContains(t, out.HTML, "<script>")
}

func TestEmailNotifierSendsRenderedMessage(t *testing.T) {
	r, err := NewRenderer("en", "₫")
	require.NoError(t, err)
	provider := &recordingProvider{}
	n := NewEmailNotifier(provider, r, zap.NewNop())

	require.NoError(t, n.SendInvoice(context.Background(), sampleNotice()))
	require.Len(t, provider.sent, 1)
	assert.Equal(t, []string{"an@example.com"}, provider.sent[0].To)
	assert.Contains(t, provider.sent[0].Subject, "INV-202502-101")
}

func TestEmailNotifierReturnsProviderError(t *testing.T) {
	r, err := NewRenderer("en", "₫")
	require.NoError(t, err)
	boom := errors.New("connection refused")
	n := NewEmailNotifier(&recordingProvider{err: boom}, r, zap.NewNop())

	assert.ErrorIs(t, n.SendInvoice(context.Background(), sampleNotice()), boom)
}

func TestSMTPProviderBuildsMessage(t *testing.T) {
	p := NewSMTP(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "mailer",
		Password: "secret",
		From:     "billing@example.com",
		FromName: "Sunrise Billing",
	})

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	p.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = string(msg)
		assert.Equal(t, "billing@example.com", from)
		return nil
	}

	err := p.Send(context.Background(), Message{
		To:      []string{"an@example.com"},
		Subject: "Hóa đơn 2025-02",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, []string{"an@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "From: \"Sunrise Billing\" <billing@example.com>\r\n")
	assert.Contains(t, gotMsg, "Subject: =?utf-8?q?")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPProviderRejectsEmptyRecipients(t *testing.T) {
	p := NewSMTP(SMTPConfig{Host: "localhost", Port: 25, From: "a@example.com"})
	p.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	assert.Error(t, p.Send(context.Background(), Message{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Send(ctx, Message{To: []string{"b@example.com"}}), context.Canceled)
}
