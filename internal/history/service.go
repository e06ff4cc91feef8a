package history

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nusapos/nusapos/internal/ledger"
)

// Repository is the ledger read side the history report needs.
type Repository interface {
	List(ctx context.Context) ([]ledger.Transaction, error)
	PaidSummary(ctx context.Context) (ledger.PaidSummary, error)
}

// Summary is the sales history report. Omzet counts settled
// transactions only; Count covers every recorded transaction.
type Summary struct {
	Omzet        int64                `json:"omzet"`
	OmzetDisplay string               `json:"omzet_display"`
	Count        int                  `json:"count"`
	Transactions []ledger.Transaction `json:"transactions"`
}

// Service assembles the cached sales history.
type Service struct {
	repo    Repository
	cache   *Cache
	printer *message.Printer
}

// NewService builds Service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		printer: message.NewPrinter(language.Indonesian),
	}
}

// Summary returns the sales report, served from cache when fresh.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, "history", "summary")
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.load(ctx)
	})
	return summary, err
}

func (s *Service) load(ctx context.Context) (Summary, error) {
	transactions, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	paid, err := s.repo.PaidSummary(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Omzet:        paid.Omzet,
		OmzetDisplay: s.printer.Sprintf("Rp%d", paid.Omzet),
		Count:        paid.Count,
		Transactions: transactions,
	}, nil
}
