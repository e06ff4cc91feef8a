package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Classifier is the opaque trained model behind the gate. The only
// contract is classify(image) -> (index, confidence).
type Classifier interface {
	Classify(ctx context.Context, t Tensor) (class int, confidence float64, err error)
}

// HTTPClassifier talks to a TensorFlow Serving style predict endpoint.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier constructs the serving client. Deadlines come from
// the caller's context, not the transport.
func NewHTTPClassifier(url string) *HTTPClassifier {
	return &HTTPClassifier{url: url, client: &http.Client{}}
}

type predictRequest struct {
	Instances [][][][]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// Classify posts the tensor and reduces the score vector to the top
// class and its confidence.
func (c *HTTPClassifier) Classify(ctx context.Context, t Tensor) (int, float64, error) {
	body, err := json.Marshal(predictRequest{Instances: [][][][]float32{reshape(t)}})
	if err != nil {
		return 0, 0, fmt.Errorf("recognition: marshal tensor: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("recognition: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("recognition: predict call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("recognition: predict status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, fmt.Errorf("recognition: decode prediction: %w", err)
	}
	if len(out.Predictions) == 0 || len(out.Predictions[0]) == 0 {
		return 0, 0, fmt.Errorf("recognition: empty prediction")
	}

	scores := out.Predictions[0]
	best := 0
	for i, score := range scores {
		if score > scores[best] {
			best = i
		}
	}
	return best, scores[best], nil
}

// reshape converts the flat RGB tensor into the nested HWC layout the
// serving endpoint expects.
func reshape(t Tensor) [][][]float32 {
	rows := make([][][]float32, t.Height)
	i := 0
	for y := 0; y < t.Height; y++ {
		row := make([][]float32, t.Width)
		for x := 0; x < t.Width; x++ {
			row[x] = t.Pixels[i : i+3 : i+3]
			i += 3
		}
		rows[y] = row
	}
	return rows
}
