// internal/classifier/models.go
package classifier

// Prediction is the classifier's answer for one cleaned message.
type Prediction struct {
	Intent        string             `json:"predicted_intent"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Top3          []ScoredIntent     `json:"top_3_predictions,omitempty"`
}

// ScoredIntent pairs an intent label with its probability.
type ScoredIntent struct {
	Intent string  `json:"intent"`
	Score  float64 `json:"score"`
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Intent        string             `json:"intent"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}
