package models

// Result shapes returned by the AI gateway. Field names match the JSON the
// model is prompted to emit, so tags stay camelCase.

type PredictionResult struct {
	PredictedWaitMinutes float64  `json:"predictedWaitMinutes"`
	Confidence           string   `json:"confidence"` // high, medium, low
	Factors              []string `json:"factors"`
	Recommendation       string   `json:"recommendation"`
}

type OptimizationSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"` // high, medium, low
}

type OptimizationResult struct {
	Suggestions            []OptimizationSuggestion `json:"suggestions"`
	PeakHours              []string                 `json:"peakHours"`
	StaffingRecommendation string                   `json:"staffingRecommendation"`
}

type CustomerInsights struct {
	Message string `json:"message"`
	Tip     string `json:"tip"`
	FunFact string `json:"funFact"`
}
