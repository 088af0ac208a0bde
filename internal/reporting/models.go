package reporting

// CampaignROI combines interaction counts from the aggregator with actual
// consumed credits from the ledger.
//
// TotalCost is the real net ledger consumption attributed to the campaign
// (reference_id = campaign id). The TTS/telephony/Gemini split is supplied by
// the ingestion source per interaction and summed here; it explains the spend
// but is never recomputed from rates.
type CampaignROI struct {
	CampaignID string `json:"campaign_id"`
	OrgID      string `json:"org_id"`

	TotalInteractions int `json:"total_interactions"`
	Completed         int `json:"completed"`

	TotalCost     int64 `json:"total_cost"`
	TTSCost       int64 `json:"tts_cost"`
	TelephonyCost int64 `json:"telephony_cost"`
	GeminiCost    int64 `json:"gemini_cost"`

	// ConversionRate = Completed / TotalInteractions; nil when there are no
	// interactions.
	ConversionRate *float64 `json:"conversion_rate"`

	// CostPerConversion = TotalCost / Completed; nil when nothing converted.
	CostPerConversion *float64 `json:"cost_per_conversion"`
}

// ABTest compares campaign variants. A variant's interactions and ledger
// consumption are attributed solely through its campaign id.
type ABTest struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`
	Name  string `json:"name"`

	Status ABTestStatus `json:"status"`

	Variants []Variant `json:"variants"`
}

type ABTestStatus string

const (
	ABTestStatusDraft     ABTestStatus = "draft"
	ABTestStatusRunning   ABTestStatus = "running"
	ABTestStatusCompleted ABTestStatus = "completed"
)

type Variant struct {
	Name       string `json:"name"`
	CampaignID string `json:"campaign_id"`
}

type VariantResult struct {
	Name       string `json:"name"`
	CampaignID string `json:"campaign_id"`

	Total     int `json:"total"`
	Completed int `json:"completed"`

	ConversionRate *float64 `json:"conversion_rate"`

	TotalCost int64 `json:"total_cost"`
}

// ABTestResult reports the chi-squared comparison of variant conversion
// rates. With fewer than two variants carrying data the statistic fields stay
// nil and the result is simply "not significant" rather than a fault.
type ABTestResult struct {
	TestID string `json:"test_id"`
	Name   string `json:"name"`

	Variants []VariantResult `json:"variants"`

	ChiSquared    *float64 `json:"chi_squared"`
	PValue        *float64 `json:"p_value"`
	IsSignificant bool     `json:"is_significant"`

	// Winner is the variant with the strictly highest conversion rate,
	// reported only when the difference is significant.
	Winner *string `json:"winner"`
}
