package models

// ProjectDebt is one capital project to be financed. Static configuration,
// immutable within a run.
type ProjectDebt struct {
	Name      string  `json:"name" yaml:"name"`
	Principal float64 `json:"principal" yaml:"principal"`
	TermYears int     `json:"term_years" yaml:"term_years"`
}
