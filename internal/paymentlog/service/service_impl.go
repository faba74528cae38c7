package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/clock"
	"github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	"github.com/smallbiznis/rentbill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPageSize = 50

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("paymentlog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Append(ctx context.Context, tx *gorm.DB, entry domain.Entry) (*domain.PaymentLog, error) {
	if entry.InvoiceID == 0 {
		return nil, domain.ErrInvalidInvoiceID
	}
	if !entry.Action.Valid() {
		return nil, domain.ErrInvalidAction
	}
	actor := strings.TrimSpace(entry.Actor)
	if actor == "" {
		return nil, domain.ErrInvalidActor
	}
	if tx == nil {
		tx = s.db
	}

	log := domain.PaymentLog{
		ID:        s.genID.Generate(),
		InvoiceID: entry.InvoiceID,
		Action:    entry.Action,
		OldStatus: entry.OldStatus,
		NewStatus: entry.NewStatus,
		Amount:    entry.Amount,
		Actor:     actor,
		CreatedAt: s.clock.Now().UTC(),
	}
	if note := strings.TrimSpace(entry.Note); note != "" {
		log.Note = &note
	}

	if err := s.repo.Insert(ctx, tx, &log); err != nil {
		s.log.Warn("failed to write payment log",
			zap.String("invoice_id", entry.InvoiceID.String()),
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
		return nil, err
	}
	return &log, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidInvoiceID
	}

	afterID, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListResponse{}, domain.ErrInvalidPageToken
	}
	pageSize := req.Limit(defaultPageSize)

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		InvoiceID: invoiceID,
		AfterID:   afterID,
		Limit:     pageSize,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	items, pageInfo := pagination.Page(items, pageSize, func(item *domain.PaymentLog) snowflake.ID {
		return item.ID
	})

	logs := make([]domain.PaymentLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	return domain.ListResponse{PaymentLogs: logs, PageInfo: pageInfo}, nil
}
