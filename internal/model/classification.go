// internal/model/classification.go
package model

// Classification is the closed set of reply categories the pipeline acts on.
// Introducing a new category is a compile-time decision: the action
// dispatcher switches exhaustively over these values.
type Classification string

const (
	ClassificationPositive    Classification = "positive"
	ClassificationNegative    Classification = "negative"
	ClassificationDeclined    Classification = "declined"
	ClassificationBounce      Classification = "bounce"
	ClassificationNeutral     Classification = "neutral"
	ClassificationOutOfOffice Classification = "out_of_office"
)

// Sentiment values as reported by the classification service.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// ParseClassification maps a raw category string from the classification
// service onto the closed enum. ok is false for anything outside the set.
func ParseClassification(raw string) (Classification, bool) {
	switch Classification(raw) {
	case ClassificationPositive,
		ClassificationNegative,
		ClassificationDeclined,
		ClassificationBounce,
		ClassificationNeutral,
		ClassificationOutOfOffice:
		return Classification(raw), true
	}
	return "", false
}
