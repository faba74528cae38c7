package service

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentbill/internal/clock"
	"github.com/smallbiznis/rentbill/internal/config"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/rentbill/internal/invoice/repository"
	paymentlogdomain "github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	paymentlogrepo "github.com/smallbiznis/rentbill/internal/paymentlog/repository"
	paymentlogservice "github.com/smallbiznis/rentbill/internal/paymentlog/service"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	propertyrepo "github.com/smallbiznis/rentbill/internal/property/repository"
	readingdomain "github.com/smallbiznis/rentbill/internal/reading/domain"
	readingrepo "github.com/smallbiznis/rentbill/internal/reading/repository"
	"github.com/smallbiznis/rentbill/internal/testutil"
	utilitycostservice "github.com/smallbiznis/rentbill/internal/utilitycost/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testActor = "manager-1"

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendInvoice(ctx context.Context, notice invoicedomain.Notice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// failingLogs rejects log writes for one invoice so its transaction rolls back.
type failingLogs struct {
	paymentlogdomain.Service
	failFor snowflake.ID
}

func (f failingLogs) Append(ctx context.Context, tx *gorm.DB, entry paymentlogdomain.Entry) (*paymentlogdomain.PaymentLog, error) {
	if entry.InvoiceID == f.failFor {
		return nil, errors.New("disk full")
	}
	return f.Service.Append(ctx, tx, entry)
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	billing  *config.BillingConfigHolder
	notifier *mockNotifier
	logs     paymentlogdomain.Service
	building propertydomain.Building
	svc      *Service
}

func setupInvoiceService(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t,
		&propertydomain.Building{},
		&propertydomain.Room{},
		&propertydomain.Tenant{},
		&readingdomain.UtilityReading{},
		&readingdomain.MeterRecord{},
		&invoicedomain.Invoice{},
		&paymentlogdomain.PaymentLog{},
	)
	node := testutil.MustNode(t)
	// 16:00 in Ho Chi Minh City.
	fakeClock := clock.NewFakeClock(time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC))
	billing := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())

	building := propertydomain.Building{
		ID:                node.Generate(),
		Name:              "Sunrise",
		ElectricUnitPrice: decimal.NewNullDecimal(decimal.NewFromInt(3000)),
		WaterUnitPrice:    decimal.NewNullDecimal(decimal.NewFromInt(20000)),
		WaterMethod:       propertydomain.WaterMethodByMeter,
	}
	require.NoError(t, db.Create(&building).Error)

	logs := paymentlogservice.New(paymentlogservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  paymentlogrepo.Provide(),
	})
	notifier := &mockNotifier{}

	f := &fixture{
		db:       db,
		node:     node,
		clock:    fakeClock,
		billing:  billing,
		notifier: notifier,
		logs:     logs,
		building: building,
	}
	f.svc = f.build(logs)
	return f
}

func (f *fixture) build(logs paymentlogdomain.Service) *Service {
	registry := propertyrepo.Provide(f.db)
	return NewService(ServiceParam{
		DB:       f.db,
		Log:      zap.NewNop(),
		GenID:    f.node,
		Clock:    f.clock,
		Billing:  f.billing,
		Repo:     invoicerepo.Provide(),
		Registry: registry,
		Calculator: utilitycostservice.New(utilitycostservice.Params{
			DB:          f.db,
			Log:         zap.NewNop(),
			ReadingRepo: readingrepo.Provide(),
			Registry:    registry,
		}),
		PaymentLogs: logs,
		Notifier:    f.notifier,
	}).(*Service)
}

func (f *fixture) room(t *testing.T, number string, price int64) propertydomain.Room {
	t.Helper()
	room := propertydomain.Room{ID: f.node.Generate(), BuildingID: f.building.ID, RoomNumber: number, Price: price}
	require.NoError(t, f.db.Create(&room).Error)
	return room
}

func (f *fixture) tenant(t *testing.T, roomID snowflake.ID, name string, holder bool, email *string) propertydomain.Tenant {
	t.Helper()
	tenant := propertydomain.Tenant{
		ID:               f.node.Generate(),
		RoomID:           roomID,
		FullName:         name,
		Email:            email,
		IsContractHolder: holder,
		StartDate:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&tenant).Error)
	return tenant
}

func (f *fixture) reading(t *testing.T, roomID snowflake.ID, p string, electric, water int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&readingdomain.UtilityReading{
		ID:            f.node.Generate(),
		RoomID:        roomID,
		Period:        p,
		ElectricIndex: testutil.Int64Ptr(electric),
		WaterIndex:    testutil.Int64Ptr(water),
		CreatedBy:     "seed",
		UpdatedBy:     "seed",
	}).Error)
}

func (f *fixture) invoice(t *testing.T, roomID snowflake.ID, p string, status invoicedomain.Status, due time.Time) invoicedomain.Invoice {
	t.Helper()
	now := f.clock.Now()
	inv := invoicedomain.Invoice{
		ID:            f.node.Generate(),
		InvoiceNumber: "INV-" + p,
		BuildingID:    f.building.ID,
		RoomID:        roomID,
		Period:        p,
		RoomPrice:     1_000_000,
		TotalAmount:   1_000_000,
		Status:        status,
		DueDate:       due.UTC(),
		Breakdown:     datatypes.JSONMap{},
		CreatedBy:     "seed",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.db.Create(&inv).Error)
	return inv
}

func (f *fixture) generate(t *testing.T, p string) []invoicedomain.Summary {
	t.Helper()
	out, err := f.svc.GenerateInvoices(context.Background(), invoicedomain.GenerateRequest{
		BuildingID: f.building.ID.String(),
		Period:     p,
		Actor:      testActor,
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) status(t *testing.T, id snowflake.ID) invoicedomain.Status {
	t.Helper()
	var inv invoicedomain.Invoice
	require.NoError(t, f.db.First(&inv, "id = ?", id).Error)
	return inv.Status
}

func (f *fixture) logsFor(t *testing.T, id snowflake.ID) []paymentlogdomain.PaymentLog {
	t.Helper()
	var logs []paymentlogdomain.PaymentLog
	require.NoError(t, f.db.Where("invoice_id = ?", id).Order("id asc").Find(&logs).Error)
	return logs
}

func TestGenerateInvoicesComputesCharges(t *testing.T) {
	f := setupInvoiceService(t)
	occupied := f.room(t, "101", 3_000_000)
	f.tenant(t, occupied.ID, "Nguyen Van An", true, testutil.StrPtr("an@example.com"))
	f.reading(t, occupied.ID, "2025-01", 100, 50)
	f.reading(t, occupied.ID, "2025-02", 150, 60)

	f.room(t, "102", 2_500_000)
	movedOut := f.room(t, "103", 2_500_000)
	holder := f.tenant(t, movedOut.ID, "Tran Binh", true, nil)
	end := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Model(&propertydomain.Tenant{}).Where("id = ?", holder.ID).Update("end_date", end).Error)

	out := f.generate(t, "2025-02")
	require.Len(t, out, 1)

	inv := out[0]
	assert.Equal(t, occupied.ID.String(), inv.RoomID)
	assert.Equal(t, int64(3_000_000), inv.RoomPrice)
	assert.Equal(t, int64(150_000), inv.ElectricAmount)
	assert.Equal(t, int64(200_000), inv.WaterAmount)
	assert.Equal(t, int64(3_350_000), inv.TotalAmount)
	assert.Equal(t, invoicedomain.StatusDraft, inv.Status)
	assert.Equal(t, "2025-02-08", inv.DueDate)
	assert.Equal(t, "INV-202502-101", inv.InvoiceNumber)
	assert.Equal(t, "utility_reading", inv.Breakdown[invoicedomain.BreakdownElectricSource])
}

func TestGenerateInvoicesIsIdempotent(t *testing.T) {
	f := setupInvoiceService(t)
	for _, number := range []string{"101", "102"} {
		room := f.room(t, number, 2_000_000)
		f.tenant(t, room.ID, "Tenant "+number, true, nil)
	}

	first := f.generate(t, "2025-02")
	require.Len(t, first, 2)

	second := f.generate(t, "2025-02")
	assert.Empty(t, second)

	var count int64
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Where("period = ?", "2025-02").Count(&count).Error)
	assert.Equal(t, int64(2), count)

	third := f.generate(t, "2025-03")
	assert.Len(t, third, 2)
}

func TestGenerateInvoicesPerCapitaWater(t *testing.T) {
	f := setupInvoiceService(t)
	require.NoError(t, f.db.Model(&propertydomain.Building{}).
		Where("id = ?", f.building.ID).
		Update("water_method", string(propertydomain.WaterMethodPerCapita)).Error)

	room := f.room(t, "201", 3_000_000)
	f.tenant(t, room.ID, "An", true, nil)
	f.tenant(t, room.ID, "Binh", false, nil)
	chi := f.tenant(t, room.ID, "Chi", false, nil)
	require.NoError(t, f.db.Model(&chi).Update("end_date", time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)).Error)

	out := f.generate(t, "2025-01")
	require.Len(t, out, 1)
	assert.Equal(t, int64(0), out[0].ElectricAmount)
	// Raw headcount is billed; moved-out tenants still count.
	assert.Equal(t, int64(60_000), out[0].WaterAmount)
	assert.Equal(t, int64(3_060_000), out[0].TotalAmount)
	assert.EqualValues(t, 3, out[0].Breakdown["headcount"])
	assert.EqualValues(t, 2, out[0].Breakdown["active_headcount"])
}

func TestGenerateInvoicesValidatesInput(t *testing.T) {
	f := setupInvoiceService(t)
	ctx := context.Background()

	_, err := f.svc.GenerateInvoices(ctx, invoicedomain.GenerateRequest{BuildingID: f.building.ID.String(), Period: "2025-13", Actor: testActor})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPeriod)

	_, err = f.svc.GenerateInvoices(ctx, invoicedomain.GenerateRequest{BuildingID: "x", Period: "2025-01", Actor: testActor})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidID)

	_, err = f.svc.GenerateInvoices(ctx, invoicedomain.GenerateRequest{BuildingID: f.building.ID.String(), Period: "2025-01", Actor: " "})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidActor)

	_, err = f.svc.GenerateInvoices(ctx, invoicedomain.GenerateRequest{BuildingID: f.node.Generate().String(), Period: "2025-01", Actor: testActor})
	assert.ErrorIs(t, err, propertydomain.ErrBuildingNotFound)
}

func TestPayInvoiceStateMachine(t *testing.T) {
	f := setupInvoiceService(t)
	room := f.room(t, "101", 1_000_000)
	due := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	draft := f.invoice(t, room.ID, "2025-01", invoicedomain.StatusDraft, due)
	paid, err := f.svc.PayInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: draft.ID.String(), Actor: testActor, Note: "cash"})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, f.clock.Now(), *paid.PaidAt)

	logs := f.logsFor(t, draft.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, paymentlogdomain.ActionPaid, logs[0].Action)
	assert.Equal(t, "DRAFT", logs[0].OldStatus)
	assert.Equal(t, "PAID", logs[0].NewStatus)
	assert.Equal(t, int64(1_000_000), logs[0].Amount)

	_, err = f.svc.PayInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: draft.ID.String(), Actor: testActor})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceAlreadyPaid)

	void := f.invoice(t, room.ID, "2025-02", invoicedomain.StatusVoid, due)
	_, err = f.svc.PayInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: void.ID.String(), Actor: testActor})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceCannotBePaid)

	overdue := f.invoice(t, room.ID, "2025-03", invoicedomain.StatusOverdue, due)
	_, err = f.svc.PayInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: overdue.ID.String(), Actor: testActor})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceCannotBePaid)
	assert.Empty(t, f.logsFor(t, overdue.ID))

	unpaid := f.invoice(t, room.ID, "2025-04", invoicedomain.StatusUnpaid, due)
	_, err = f.svc.PayInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: unpaid.ID.String(), Actor: testActor})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, f.status(t, unpaid.ID))

	_, err = f.svc.PayInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: f.node.Generate().String(), Actor: testActor})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

func TestPayOverdueWhenAllowed(t *testing.T) {
	f := setupInvoiceService(t)
	cfg := config.DefaultBillingConfig()
	cfg.AllowOverduePayment = true
	f.billing = config.NewStaticBillingConfigHolder(cfg)
	f.svc = f.build(f.logs)

	room := f.room(t, "101", 1_000_000)
	overdue := f.invoice(t, room.ID, "2025-01", invoicedomain.StatusOverdue, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))

	paid, err := f.svc.PayInvoice(context.Background(), invoicedomain.TransitionRequest{InvoiceID: overdue.ID.String(), Actor: testActor})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, paid.Status)
}

func TestIssueAndVoidInvoice(t *testing.T) {
	f := setupInvoiceService(t)
	room := f.room(t, "101", 1_000_000)
	due := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	inv := f.invoice(t, room.ID, "2025-01", invoicedomain.StatusDraft, due)

	issued, err := f.svc.IssueInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: inv.ID.String(), Actor: testActor})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusUnpaid, issued.Status)
	assert.NotNil(t, issued.IssuedAt)

	_, err = f.svc.IssueInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: inv.ID.String(), Actor: testActor})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceCannotBeIssued)

	voided, err := f.svc.VoidInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: inv.ID.String(), Actor: testActor, Note: "tenant moved out"})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusVoid, voided.Status)
	assert.NotNil(t, voided.IssuedAt)
	assert.NotNil(t, voided.VoidedAt)

	_, err = f.svc.VoidInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: inv.ID.String(), Actor: testActor})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceCannotBeVoided)

	logs := f.logsFor(t, inv.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, paymentlogdomain.ActionStatusChanged, logs[1].Action)
	require.NotNil(t, logs[1].Note)
	assert.Equal(t, "tenant moved out", *logs[1].Note)

	_, err = f.svc.VoidInvoice(ctx, invoicedomain.TransitionRequest{InvoiceID: inv.ID.String(), Actor: ""})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidActor)
}

func TestSendInvoiceEmail(t *testing.T) {
	f := setupInvoiceService(t)
	room := f.room(t, "101", 3_000_000)
	tenant := f.tenant(t, room.ID, "Nguyen Van An", true, testutil.StrPtr(" an@example.com "))
	f.reading(t, room.ID, "2025-01", 100, 50)
	f.reading(t, room.ID, "2025-02", 150, 60)

	out := f.generate(t, "2025-02")
	require.Len(t, out, 1)

	f.notifier.On("SendInvoice", mock.Anything, mock.MatchedBy(func(n invoicedomain.Notice) bool {
		return n.ToEmail == "an@example.com" &&
			n.TenantName == tenant.FullName &&
			n.RoomNumber == "101" &&
			n.Period == "2025-02" &&
			n.TotalAmount == 3_350_000 &&
			n.DueDate.Format(time.DateOnly) == "2025-02-08"
	})).Return(nil).Once()

	require.NoError(t, f.svc.SendInvoiceEmail(context.Background(), out[0].ID))
	f.notifier.AssertExpectations(t)
}

func TestSendInvoiceEmailPreconditions(t *testing.T) {
	f := setupInvoiceService(t)
	ctx := context.Background()
	due := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	err := f.svc.SendInvoiceEmail(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)

	noTenant := f.invoice(t, f.room(t, "101", 1).ID, "2025-01", invoicedomain.StatusDraft, due)
	err = f.svc.SendInvoiceEmail(ctx, noTenant.ID.String())
	assert.ErrorIs(t, err, propertydomain.ErrTenantNotFound)

	for name, email := range map[string]*string{"nil": nil, "blank": testutil.StrPtr("   ")} {
		room := f.room(t, "R-"+name, 1)
		tenant := f.tenant(t, room.ID, "Tenant", true, email)
		inv := f.invoice(t, room.ID, "2025-01", invoicedomain.StatusDraft, due)
		require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Where("id = ?", inv.ID).Update("tenant_id", tenant.ID).Error)

		err := f.svc.SendInvoiceEmail(ctx, inv.ID.String())
		assert.ErrorIs(t, err, invoicedomain.ErrEmailRequired, name)
	}

	f.notifier.AssertNotCalled(t, "SendInvoice", mock.Anything, mock.Anything)
}

func TestSendInvoiceEmailSurfacesDeliveryError(t *testing.T) {
	f := setupInvoiceService(t)
	room := f.room(t, "101", 1_000_000)
	f.tenant(t, room.ID, "An", true, testutil.StrPtr("an@example.com"))
	out := f.generate(t, "2025-02")
	require.Len(t, out, 1)

	smtpErr := errors.New("421 service not available")
	f.notifier.On("SendInvoice", mock.Anything, mock.Anything).Return(smtpErr).Once()

	err := f.svc.SendInvoiceEmail(context.Background(), out[0].ID)
	assert.ErrorIs(t, err, smtpErr)
}

func TestMarkOverdueInvoices(t *testing.T) {
	f := setupInvoiceService(t)
	room := f.room(t, "101", 1_000_000)
	ctx := context.Background()

	// Start of 2025-02-03 in Ho Chi Minh City is 2025-02-02T17:00Z.
	past := time.Date(2025, 2, 1, 17, 0, 0, 0, time.UTC)
	today := time.Date(2025, 2, 2, 17, 0, 0, 0, time.UTC)

	draft := f.invoice(t, room.ID, "2024-09", invoicedomain.StatusDraft, past)
	unpaid := f.invoice(t, room.ID, "2024-10", invoicedomain.StatusUnpaid, past)
	paid := f.invoice(t, room.ID, "2024-11", invoicedomain.StatusPaid, past)
	void := f.invoice(t, room.ID, "2024-12", invoicedomain.StatusVoid, past)
	overdue := f.invoice(t, room.ID, "2025-01", invoicedomain.StatusOverdue, past)
	dueToday := f.invoice(t, room.ID, "2025-02", invoicedomain.StatusUnpaid, today)

	result, err := f.svc.MarkOverdueInvoices(ctx, "system:scheduler")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Marked)
	assert.Zero(t, result.Failed)

	assert.Equal(t, invoicedomain.StatusOverdue, f.status(t, draft.ID))
	assert.Equal(t, invoicedomain.StatusOverdue, f.status(t, unpaid.ID))
	assert.Equal(t, invoicedomain.StatusPaid, f.status(t, paid.ID))
	assert.Equal(t, invoicedomain.StatusVoid, f.status(t, void.ID))
	assert.Equal(t, invoicedomain.StatusOverdue, f.status(t, overdue.ID))
	assert.Equal(t, invoicedomain.StatusUnpaid, f.status(t, dueToday.ID))

	logs := f.logsFor(t, unpaid.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, paymentlogdomain.ActionMarkedOverdue, logs[0].Action)
	assert.Equal(t, "UNPAID", logs[0].OldStatus)
	assert.Equal(t, "system:scheduler", logs[0].Actor)
	assert.Empty(t, f.logsFor(t, overdue.ID))

	again, err := f.svc.MarkOverdueInvoices(ctx, "system:scheduler")
	require.NoError(t, err)
	assert.Zero(t, again.Marked)

	f.clock.Advance(24 * time.Hour)
	next, err := f.svc.MarkOverdueInvoices(ctx, "system:scheduler")
	require.NoError(t, err)
	assert.Equal(t, 1, next.Marked)
	assert.Equal(t, invoicedomain.StatusOverdue, f.status(t, dueToday.ID))
}

func TestMarkOverdueInvoicesIsolatesFailures(t *testing.T) {
	f := setupInvoiceService(t)
	cfg := config.DefaultBillingConfig()
	cfg.OverdueSweep.BatchSize = 2
	f.billing = config.NewStaticBillingConfigHolder(cfg)

	room := f.room(t, "101", 1_000_000)
	past := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	periods := []string{"2024-08", "2024-09", "2024-10", "2024-11", "2024-12"}
	invoices := make([]invoicedomain.Invoice, 0, len(periods))
	for _, p := range periods {
		invoices = append(invoices, f.invoice(t, room.ID, p, invoicedomain.StatusUnpaid, past))
	}

	broken := invoices[1]
	f.svc = f.build(failingLogs{Service: f.logs, failFor: broken.ID})

	result, err := f.svc.MarkOverdueInvoices(context.Background(), "system:scheduler")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Marked)
	assert.Equal(t, 1, result.Failed)

	assert.Equal(t, invoicedomain.StatusUnpaid, f.status(t, broken.ID), "failed invoice rolls back")
	for _, inv := range invoices {
		if inv.ID == broken.ID {
			continue
		}
		assert.Equal(t, invoicedomain.StatusOverdue, f.status(t, inv.ID))
	}
}

func TestGetAndListInvoices(t *testing.T) {
	f := setupInvoiceService(t)
	ctx := context.Background()
	room := f.room(t, "101", 1_000_000)
	other := f.room(t, "102", 1_000_000)
	due := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	a := f.invoice(t, room.ID, "2025-01", invoicedomain.StatusDraft, due)
	f.invoice(t, room.ID, "2025-02", invoicedomain.StatusPaid, due)
	f.invoice(t, other.ID, "2025-01", invoicedomain.StatusDraft, due)

	got, err := f.svc.GetInvoice(ctx, a.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "2025-01", got.Period)
	assert.Equal(t, "2025-02-10", got.DueDate)

	_, err = f.svc.GetInvoice(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)

	byPeriod, err := f.svc.ListInvoices(ctx, invoicedomain.ListRequest{Period: "2025-01"})
	require.NoError(t, err)
	assert.Len(t, byPeriod.Invoices, 2)

	byStatus, err := f.svc.ListInvoices(ctx, invoicedomain.ListRequest{RoomID: room.ID.String(), Status: "paid"})
	require.NoError(t, err)
	require.Len(t, byStatus.Invoices, 1)
	assert.Equal(t, "2025-02", byStatus.Invoices[0].Period)

	page, err := f.svc.ListInvoices(ctx, invoicedomain.ListRequest{BuildingID: f.building.ID.String()})
	require.NoError(t, err)
	assert.Len(t, page.Invoices, 3)
	assert.False(t, page.HasMore)

	_, err = f.svc.ListInvoices(ctx, invoicedomain.ListRequest{Status: "LATE"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)
}
