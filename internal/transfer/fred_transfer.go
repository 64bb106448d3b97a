package transfer

type FredObservationsResponse struct {
	ObservationStart string            `json:"observation_start"`
	ObservationEnd   string            `json:"observation_end"`
	Units            string            `json:"units"`
	Count            int               `json:"count"`
	Observations     []FredObservation `json:"observations"`
}

type FredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type FredErrorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// EconomicSeries is the cleaned response returned to site visitors.
type EconomicSeries struct {
	SeriesID     string          `json:"series_id"`
	Units        string          `json:"units"`
	Observations []EconomicPoint `json:"observations"`
}

type EconomicPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}
