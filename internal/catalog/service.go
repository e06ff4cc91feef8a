package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nusapos/nusapos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// SkipObserver counts cart lines the decrement protocol skipped.
type SkipObserver interface {
	ObserveSkippedDecrement()
}

// Service coordinates catalog operations and owns the decrement protocol
// shared by the checkout and confirmation paths.
type Service struct {
	repo    Repository
	audit   AuditPort
	metrics SkipObserver
	logger  *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort, metrics SkipObserver, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, logger: logger}
}

// List returns the full catalog ordered by recognition class.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// GetByName looks a product up by its display name.
func (s *Service) GetByName(ctx context.Context, name string) (Product, error) {
	return s.repo.GetByName(ctx, name)
}

// GetByClassIndex resolves a classifier output index to a product.
func (s *Service) GetByClassIndex(ctx context.Context, classIndex int) (Product, error) {
	return s.repo.GetByClassIndex(ctx, classIndex)
}

// UpdateStock overwrites a product's stock and price. Repeated calls with
// the same values are a no-op and always succeed.
func (s *Service) UpdateStock(ctx context.Context, input UpdateStockInput) error {
	if input.Stock < 0 {
		return ErrInvalidStock
	}
	if input.Price < 0 {
		return ErrInvalidPrice
	}
	if err := s.repo.Overwrite(ctx, input.ProductID, input.Stock, input.Price); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   shared.AuditCatalogUpdateStock,
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", input.ProductID),
			Meta: map[string]any{
				"stock": input.Stock,
				"price": input.Price,
			},
		})
	}
	return nil
}

// DecrementEach applies the decrement protocol once per item name, in list
// order. Lines whose product is unknown or already out of stock are skipped
// rather than failing the whole transaction; the count of applied decrements
// is returned. Partial fulfillment is the accepted policy here, not an error.
func (s *Service) DecrementEach(ctx context.Context, names []string) int {
	applied := 0
	for _, name := range names {
		ok, err := s.repo.DecrementIfAvailable(ctx, name)
		if err != nil {
			s.warnSkip(name, slog.Any("error", err))
			continue
		}
		if !ok {
			s.warnSkip(name)
			continue
		}
		applied++
	}
	return applied
}

func (s *Service) warnSkip(name string, extra ...any) {
	if s.metrics != nil {
		s.metrics.ObserveSkippedDecrement()
	}
	if s.logger != nil {
		args := append([]any{slog.String("item", name)}, extra...)
		s.logger.Warn("decrement skipped", args...)
	}
}
