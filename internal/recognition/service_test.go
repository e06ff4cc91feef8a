package recognition

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nusapos/nusapos/internal/catalog"
	"github.com/nusapos/nusapos/internal/events"
)

type stubClassifier struct {
	class      int
	confidence float64
	err        error
	block      bool
}

func (c *stubClassifier) Classify(ctx context.Context, t Tensor) (int, float64, error) {
	if c.block {
		<-ctx.Done()
		return 0, 0, ctx.Err()
	}
	return c.class, c.confidence, c.err
}

type stubCatalog struct {
	products map[int]catalog.Product
}

func (c *stubCatalog) GetByClassIndex(ctx context.Context, classIndex int) (catalog.Product, error) {
	if p, ok := c.products[classIndex]; ok {
		return p, nil
	}
	return catalog.Product{}, catalog.ErrProductNotFound
}

type recordingBus struct {
	mu     sync.Mutex
	topics []events.Topic
	last   any
}

func (b *recordingBus) Publish(topic events.Topic, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	b.last = payload
}

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics)
}

func testCatalog() *stubCatalog {
	return &stubCatalog{products: map[int]catalog.Product{
		1: {ID: 1, Name: "Indomie", Price: 3500, Stock: 100, ClassIndex: 1},
		3: {ID: 4, Name: "Zinc", Price: 18000, Stock: 0, ClassIndex: 3},
	}}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(60 * x), G: uint8(60 * y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecognizeAcceptsAndBroadcasts(t *testing.T) {
	bus := &recordingBus{}
	gate := NewGate(&stubClassifier{class: 1, confidence: 0.91}, testCatalog(), bus, nil, nil, GateConfig{})

	match, err := gate.Recognize(context.Background(), pngBytes(t))
	require.NoError(t, err)
	require.Equal(t, "Indomie", match.Product)
	require.EqualValues(t, 3500, match.Price)
	require.Equal(t, 1, match.Class)
	require.InDelta(t, 0.91, match.Confidence, 1e-9)

	require.Equal(t, 1, bus.count())
	require.Equal(t, events.TopicNewOrder, bus.topics[0])
	payload, ok := bus.last.(NewOrderPayload)
	require.True(t, ok)
	require.Equal(t, "Indomie", payload.Product)
	require.EqualValues(t, 3500, payload.Price)
}

func TestRecognizeRejectsLowConfidence(t *testing.T) {
	bus := &recordingBus{}
	gate := NewGate(&stubClassifier{class: 1, confidence: 0.49}, testCatalog(), bus, nil, nil, GateConfig{})

	_, err := gate.Recognize(context.Background(), pngBytes(t))
	require.ErrorIs(t, err, ErrLowConfidence)
	require.Zero(t, bus.count())
}

func TestRecognizeThresholdIsInclusive(t *testing.T) {
	bus := &recordingBus{}
	gate := NewGate(&stubClassifier{class: 1, confidence: 0.50}, testCatalog(), bus, nil, nil, GateConfig{})

	_, err := gate.Recognize(context.Background(), pngBytes(t))
	require.NoError(t, err)
	require.Equal(t, 1, bus.count())
}

func TestRecognizeRejectsUnknownClass(t *testing.T) {
	bus := &recordingBus{}
	gate := NewGate(&stubClassifier{class: 9, confidence: 0.95}, testCatalog(), bus, nil, nil, GateConfig{})

	_, err := gate.Recognize(context.Background(), pngBytes(t))
	require.ErrorIs(t, err, ErrUnknownClass)
	require.Zero(t, bus.count())
}

func TestRecognizeRejectsOutOfStock(t *testing.T) {
	bus := &recordingBus{}
	gate := NewGate(&stubClassifier{class: 3, confidence: 0.95}, testCatalog(), bus, nil, nil, GateConfig{})

	_, err := gate.Recognize(context.Background(), pngBytes(t))
	require.ErrorIs(t, err, ErrOutOfStock)
	require.Zero(t, bus.count())
}

func TestRecognizeRejectsGarbageImage(t *testing.T) {
	bus := &recordingBus{}
	gate := NewGate(&stubClassifier{class: 1, confidence: 0.95}, testCatalog(), bus, nil, nil, GateConfig{})

	_, err := gate.Recognize(context.Background(), []byte("not an image"))
	require.ErrorIs(t, err, ErrDecode)
	require.Zero(t, bus.count())
}

func TestRecognizeTimesOut(t *testing.T) {
	bus := &recordingBus{}
	gate := NewGate(&stubClassifier{block: true}, testCatalog(), bus, nil, nil, GateConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := gate.Recognize(context.Background(), pngBytes(t))
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), 2*time.Second)
	require.Zero(t, bus.count())
}

func TestCustomThreshold(t *testing.T) {
	bus := &recordingBus{}
	gate := NewGate(&stubClassifier{class: 1, confidence: 0.70}, testCatalog(), bus, nil, nil, GateConfig{Threshold: 0.80})

	_, err := gate.Recognize(context.Background(), pngBytes(t))
	require.ErrorIs(t, err, ErrLowConfidence)
}
