package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nusapos/nusapos/internal/catalog"
	"github.com/nusapos/nusapos/internal/events"
)

// CatalogPort resolves recognition-class labels to products.
type CatalogPort interface {
	GetByClassIndex(ctx context.Context, classIndex int) (catalog.Product, error)
}

// Publisher is the broadcast side of the event bus.
type Publisher interface {
	Publish(topic events.Topic, payload any)
}

// Observer records recognition outcomes.
type Observer interface {
	ObserveRecognition(outcome string)
}

// GateConfig carries the tunables that used to be magic numbers.
type GateConfig struct {
	Threshold float64
	Timeout   time.Duration
}

// NewOrderPayload is the new_order event body pushed to cashier views.
type NewOrderPayload struct {
	Product string `json:"product"`
	Price   int64  `json:"price"`
}

// Gate turns the classifier's raw output into a trusted product
// reference, or a rejection. A successful recognition reserves nothing;
// the decrement protocol at settlement is the sole point of truth for
// availability.
type Gate struct {
	classifier Classifier
	catalog    CatalogPort
	bus        Publisher
	metrics    Observer
	logger     *slog.Logger
	threshold  float64
	timeout    time.Duration
}

// NewGate builds Gate.
func NewGate(classifier Classifier, catalogPort CatalogPort, bus Publisher, metrics Observer, logger *slog.Logger, cfg GateConfig) *Gate {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = 0.50
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Gate{
		classifier: classifier,
		catalog:    catalogPort,
		bus:        bus,
		metrics:    metrics,
		logger:     logger,
		threshold:  threshold,
		timeout:    timeout,
	}
}

// Recognize runs the full decision pipeline: decode, classify under a
// deadline, threshold, resolve, stock check, broadcast.
func (g *Gate) Recognize(ctx context.Context, imageBytes []byte) (Match, error) {
	tensor, err := Decode(imageBytes)
	if err != nil {
		g.observe("decode_error")
		return Match{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	class, confidence, err := g.classifier.Classify(cctx, tensor)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || cctx.Err() != nil {
			g.observe("timeout")
			return Match{}, ErrTimeout
		}
		g.observe("classifier_error")
		return Match{}, fmt.Errorf("recognition: classify: %w", err)
	}

	if g.logger != nil {
		g.logger.Debug("classifier output",
			slog.Int("class", class), slog.Float64("confidence", confidence))
	}

	if confidence < g.threshold {
		g.observe("low_confidence")
		return Match{}, ErrLowConfidence
	}

	product, err := g.catalog.GetByClassIndex(ctx, class)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			g.observe("unknown_class")
			return Match{}, ErrUnknownClass
		}
		return Match{}, err
	}
	if product.Stock <= 0 {
		g.observe("out_of_stock")
		return Match{}, ErrOutOfStock
	}

	g.observe("accepted")
	g.bus.Publish(events.TopicNewOrder, NewOrderPayload{
		Product: product.Name,
		Price:   product.Price,
	})

	return Match{
		Product:    product.Name,
		Price:      product.Price,
		Class:      class,
		Confidence: confidence,
	}, nil
}

func (g *Gate) observe(outcome string) {
	if g.metrics != nil {
		g.metrics.ObserveRecognition(outcome)
	}
}
