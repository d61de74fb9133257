package dto

type SummaryArgs struct {
	DateFrom  *string
	DateTo    *string
	AccountID *string
	GroupBy   string // "category", "day" or "" for totals only
}

type SummaryBreakdownItem struct {
	Key   string `json:"key"`
	Total string `json:"total"` // decimal string
	Count int    `json:"count"`
}

type SummaryResult struct {
	From         string                 `json:"from,omitempty"`
	To           string                 `json:"to,omitempty"`
	TotalIncome  string                 `json:"totalIncome"`
	TotalExpense string                 `json:"totalExpense"`
	Net          string                 `json:"net"`
	GroupBy      string                 `json:"groupBy,omitempty"`
	Items        []SummaryBreakdownItem `json:"items,omitempty"`
}
