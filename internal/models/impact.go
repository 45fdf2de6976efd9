package models

// ImpactRecord is the persisted daily snapshot of computed financing cost.
// Single-project runs fill AnnualPayment/TotalInterest/HouseholdImpact;
// portfolio runs fill GrandAnnual/GrandInterest instead.
type ImpactRecord struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	BondYield       float64 `json:"bond_yield"`
	TotalRate       float64 `json:"total_rate"`
	AnnualPayment   float64 `json:"annual_payment,omitempty"`
	TotalInterest   float64 `json:"total_interest,omitempty"`
	HouseholdImpact float64 `json:"household_impact,omitempty"`
	GrandAnnual     float64 `json:"grand_annual,omitempty"`
	GrandInterest   float64 `json:"grand_interest,omitempty"`
	Source          string  `json:"source,omitempty"`
}
