// Package classify wraps pre-trained text classifiers behind a single
// predict capability.
package classify

// ToxicityLabels is the fixed label vocabulary of the toxicity
// classifier, in the order its output columns are reported.
var ToxicityLabels = []string{
	"toxic",
	"severe_toxic",
	"obscene",
	"threat",
	"insult",
	"identity_hate",
}

// SentimentLabels is the fixed sentiment vocabulary, in the order its
// indicator columns are reported.
var SentimentLabels = []string{"positive", "negative", "neutral"}

// Adapter is a uniform wrapper over one trained classifier. Predict
// returns one label set per input text: multilabel classifiers return
// zero or more labels, single-label classifiers exactly one.
type Adapter interface {
	Predict(texts []string) ([][]string, error)
}
