package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dropkit/coupondrop/internal/model"
)

// LedgerReader is the read side of the claim ledger.
type LedgerReader interface {
	History(ctx context.Context, page, pageSize int) ([]model.ClaimRecord, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountTotal(ctx context.Context) (int64, error)
}

// LedgerService exposes audit reads over the claim ledger for the admin API.
type LedgerService struct {
	ledger LedgerReader
	now    func() time.Time
}

// NewLedgerService creates a LedgerService over the given ledger.
func NewLedgerService(ledger LedgerReader) *LedgerService {
	return &LedgerService{ledger: ledger, now: time.Now}
}

// History returns one page of claim records, newest first.
func (s *LedgerService) History(ctx context.Context, page, pageSize int) ([]model.ClaimRecord, error) {
	return s.ledger.History(ctx, page, pageSize)
}

// Stats returns the all-time claim count and the count since local midnight.
// The boundary is inclusive: a claim at exactly 00:00:00 counts as today's.
func (s *LedgerService) Stats(ctx context.Context) (*model.ClaimStatsResponse, error) {
	total, err := s.ledger.CountTotal(ctx)
	if err != nil {
		return nil, fmt.Errorf("count total claims: %w", err)
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.ledger.CountSince(ctx, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("count today's claims: %w", err)
	}

	return &model.ClaimStatsResponse{TotalClaims: total, TodayClaims: today}, nil
}
