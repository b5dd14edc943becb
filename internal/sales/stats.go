package sales

// Stats carries the dashboard aggregates. Counts and sums are global, not
// scoped to the caller; access to the advisor breakdown is role-gated in
// the service.
type Stats struct {
	TotalRecords        int           `json:"total_records"`
	TotalRequestedLimit float64       `json:"total_requested_limit"`
	ByProduct           []ProductStat `json:"by_product"`
	ByStatus            []StatusStat  `json:"by_status"`
	ByAdvisor           []AdvisorStat `json:"by_advisor,omitempty"`
	ByDay               []DayStat     `json:"by_day"`
}

type ProductStat struct {
	Product             string  `json:"product"`
	Count               int     `json:"count"`
	TotalRequestedLimit float64 `json:"total_requested_limit"`
}

type StatusStat struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type AdvisorStat struct {
	Advisor             string  `json:"advisor"`
	Count               int     `json:"count"`
	TotalRequestedLimit float64 `json:"total_requested_limit"`
}

type DayStat struct {
	Date                string  `json:"date"`
	Count               int     `json:"count"`
	TotalRequestedLimit float64 `json:"total_requested_limit"`
}
