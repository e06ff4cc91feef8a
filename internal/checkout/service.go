package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nusapos/nusapos/internal/catalog"
	"github.com/nusapos/nusapos/internal/events"
	"github.com/nusapos/nusapos/internal/ledger"
	"github.com/nusapos/nusapos/internal/shared"
)

// LedgerPort abstracts the transaction ledger for the orchestrator.
type LedgerPort interface {
	Create(ctx context.Context, trx ledger.Transaction) (int64, error)
	Get(ctx context.Context, id int64) (ledger.Transaction, error)
	MarkPaid(ctx context.Context, id int64, cashIn, change *int64) error
	UpdateMethod(ctx context.Context, id int64, method ledger.PaymentMethod) error
	Delete(ctx context.Context, id int64) error
}

// CatalogPort covers the price lookup and the decrement protocol. Both
// sides are served by catalog.Service.
type CatalogPort interface {
	GetByName(ctx context.Context, name string) (catalog.Product, error)
	DecrementEach(ctx context.Context, names []string) int
}

// Publisher is the broadcast side of the event bus.
type Publisher interface {
	Publish(topic events.Topic, payload any)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against duplicate checkout submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// CacheBumper invalidates the cached sales history after a write.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// CheckoutObserver records checkout metrics.
type CheckoutObserver interface {
	ObserveCheckout(method, status string)
}

// IncomingPaymentPayload is the incoming_payment event body the admin
// queue consumes.
type IncomingPaymentPayload struct {
	ID     int64    `json:"id"`
	Items  []string `json:"items"`
	Total  int64    `json:"total"`
	Method string   `json:"method"`
}

// Service drives the checkout protocol end to end and finalizes pending
// cash settlements. All collaborators are injected; the service owns no
// global state.
type Service struct {
	ledger      LedgerPort
	catalog     CatalogPort
	bus         Publisher
	audit       AuditPort
	idempotency IdempotencyPort
	cache       CacheBumper
	metrics     CheckoutObserver
	logger      *slog.Logger
}

// NewService builds Service. audit, idempotency, cache and metrics may be
// nil; the corresponding side effects are then skipped.
func NewService(ledgerRepo LedgerPort, catalogSvc CatalogPort, bus Publisher, audit AuditPort, idem IdempotencyPort, cache CacheBumper, metrics CheckoutObserver, logger *slog.Logger) *Service {
	return &Service{
		ledger:      ledgerRepo,
		catalog:     catalogSvc,
		bus:         bus,
		audit:       audit,
		idempotency: idem,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// Checkout records a sale. QRIS settles instantly: the transaction is
// created PAID and stock is decremented immediately. Every other method
// defers settlement: the transaction is created PENDING, stock stays
// untouched, and the admin queue is notified through the bus.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (Receipt, error) {
	items := normalizeItems(input.Items)
	if len(items) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	if input.Method == "" {
		return Receipt{}, ErrInvalidMethod
	}

	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, "checkout:"+input.IdempotencyKey, "checkout"); err != nil {
			return Receipt{}, err
		}
	}

	// Prices are read at checkout time, not carried in the cart, so a
	// price edit between scan and checkout cannot go stale here. Unknown
	// names price at zero and are later skipped by the decrement
	// protocol; rejecting them would break the accepted partial
	// fulfillment policy.
	var total int64
	for _, name := range items {
		product, err := s.catalog.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				if s.logger != nil {
					s.logger.Warn("cart line not in catalog", slog.String("item", name))
				}
				continue
			}
			s.rollbackKey(ctx, input.IdempotencyKey)
			return Receipt{}, err
		}
		total += product.Price
	}

	status := ledger.StatusPending
	cashIn := input.CashIn
	var change int64
	if input.Method == ledger.MethodQRIS {
		status = ledger.StatusPaid
		cashIn = total
		change = 0
	} else {
		if cashIn < total {
			s.rollbackKey(ctx, input.IdempotencyKey)
			return Receipt{}, ErrInvalidAmount
		}
		change = cashIn - total
	}

	id, err := s.ledger.Create(ctx, ledger.Transaction{
		Items:  items,
		Total:  total,
		CashIn: cashIn,
		Change: change,
		Method: input.Method,
		Status: status,
	})
	if err != nil {
		s.rollbackKey(ctx, input.IdempotencyKey)
		return Receipt{}, err
	}

	if status == ledger.StatusPaid {
		s.catalog.DecrementEach(ctx, items)
		s.bumpCache(ctx)
	} else {
		s.bus.Publish(events.TopicIncomingPayment, IncomingPaymentPayload{
			ID:     id,
			Items:  items,
			Total:  total,
			Method: string(input.Method),
		})
	}

	if s.metrics != nil {
		s.metrics.ObserveCheckout(string(input.Method), string(status))
	}
	s.recordAudit(ctx, input.ActorID, shared.AuditCheckoutCreate, id, map[string]any{
		"total":  total,
		"method": string(input.Method),
		"status": string(status),
	})

	return Receipt{ID: id, Status: status, Total: total, Change: change}, nil
}

// ConfirmPayment settles a pending transaction. The status guard inside
// MarkPaid makes this at-most-once: of two concurrent confirmations for
// the same id exactly one wins. Stock is decremented only here for cash
// sales, so abandoned pending attempts never consume inventory.
func (s *Service) ConfirmPayment(ctx context.Context, id int64, cashIn, change *int64, actorID int64) error {
	trx, err := s.ledger.Get(ctx, id)
	if err != nil {
		return err
	}
	if cashIn != nil {
		if *cashIn < trx.Total {
			return ErrInvalidAmount
		}
		if change == nil {
			c := *cashIn - trx.Total
			change = &c
		}
	}

	if err := s.ledger.MarkPaid(ctx, id, cashIn, change); err != nil {
		return err
	}

	s.catalog.DecrementEach(ctx, trx.Items)
	s.bumpCache(ctx)
	s.recordAudit(ctx, actorID, shared.AuditCheckoutConfirm, id, map[string]any{
		"total": trx.Total,
	})
	return nil
}

// UpdateMethod rewrites the payment method on an existing record.
func (s *Service) UpdateMethod(ctx context.Context, id int64, method ledger.PaymentMethod, actorID int64) error {
	if method == "" {
		return ErrInvalidMethod
	}
	if err := s.ledger.UpdateMethod(ctx, id, method); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, shared.AuditCheckoutUpdateMethod, id, map[string]any{
		"method": string(method),
	})
	return nil
}

// Delete removes a transaction. Pending records may always go; settled
// ones only as an admin correction, outside the state machine's
// guarantees.
func (s *Service) Delete(ctx context.Context, id int64, principal shared.Principal) error {
	trx, err := s.ledger.Get(ctx, id)
	if err != nil {
		return err
	}
	if trx.Status != ledger.StatusPending && !principal.IsAdmin() {
		return ErrNotDeletable
	}
	if err := s.ledger.Delete(ctx, id); err != nil {
		return err
	}
	s.bumpCache(ctx)
	s.recordAudit(ctx, principal.ID, shared.AuditCheckoutDelete, id, map[string]any{
		"status": string(trx.Status),
	})
	return nil
}

func normalizeItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *Service) rollbackKey(ctx context.Context, key string) {
	if s.idempotency != nil && key != "" {
		_ = s.idempotency.Delete(ctx, "checkout:"+key)
	}
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("history cache bump", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "transaction",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
