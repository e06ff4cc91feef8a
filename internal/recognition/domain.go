package recognition

import "errors"

// Match is a trusted product reference produced by the gate. It is
// advisory only: no stock is reserved and no transaction is created
// until checkout settles.
type Match struct {
	Product    string
	Price      int64
	Class      int
	Confidence float64
}

// ErrDecode indicates the submitted bytes are not a decodable image.
var ErrDecode = errors.New("recognition: cannot decode image")

// ErrLowConfidence indicates the classifier score fell below the
// configured threshold; the class index is not trusted.
var ErrLowConfidence = errors.New("recognition: confidence below threshold")

// ErrUnknownClass indicates no product carries the predicted
// recognition-class label (model/catalog drift).
var ErrUnknownClass = errors.New("recognition: no product for predicted class")

// ErrOutOfStock indicates the resolved product has zero stock.
var ErrOutOfStock = errors.New("recognition: product out of stock")

// ErrTimeout indicates the classifier call exceeded its deadline. No
// partial state is committed.
var ErrTimeout = errors.New("recognition: classifier timed out")
