package dashboard

// TimeSeriesPoint describes a single date/value pair. Date is YYYY-MM-DD in UTC.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// Summary wraps the admin dashboard KPIs.
type Summary struct {
	TotalOrders   int64             `json:"total_orders"`
	TotalProducts int64             `json:"total_products"`
	TotalUsers    int64             `json:"total_users"`
	RevenueCents  int64             `json:"revenue_cents"`
	Currency      string            `json:"currency"`
	OrdersSeries  []TimeSeriesPoint `json:"orders"`
	RevenueSeries []TimeSeriesPoint `json:"revenue"`
}
