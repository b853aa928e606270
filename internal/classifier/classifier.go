// Package classifier produces chat replies from user utterances.
package classifier

import "context"

// Predictor maps an utterance to a reply. Implementations never fail: any
// internal error degrades to some reply string.
type Predictor interface {
	Predict(ctx context.Context, text string) string
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(ctx context.Context, text string) string

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, text string) string {
	return f(ctx, text)
}
