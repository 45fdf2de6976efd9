package calc

import (
	"math"

	"github.com/muniwatch/debt-service/internal/models"
)

// Result holds the amortization outputs for one principal at one rate.
// All values are kept at full precision; rounding happens only when a
// record is built for the ledger.
type Result struct {
	TotalRate     float64
	AnnualPayment float64
	TotalInterest float64
}

// Compute derives the level annual debt-service payment for a single
// principal amortized over termYears at yieldPct + spreadPct.
func Compute(yieldPct, spreadPct, principal float64, termYears int) Result {
	totalRate := yieldPct + spreadPct
	r := totalRate / 100

	var annualPayment float64
	if r == 0 {
		// Straight-line repayment; the annuity formula divides by zero here.
		annualPayment = principal / float64(termYears)
	} else {
		growth := math.Pow(1+r, float64(termYears))
		annualPayment = principal * (r * growth) / (growth - 1)
	}

	totalCost := annualPayment * float64(termYears)
	return Result{
		TotalRate:     totalRate,
		AnnualPayment: annualPayment,
		TotalInterest: totalCost - principal,
	}
}

// PortfolioResult aggregates amortization across a set of projects financed
// at the same rate.
type PortfolioResult struct {
	TotalRate      float64
	GrandPrincipal float64
	GrandAnnual    float64
	GrandInterest  float64
}

// ComputePortfolio sums principal, annual payment and total interest across
// all projects, each amortized over its own term at the shared rate.
func ComputePortfolio(yieldPct, spreadPct float64, projects []models.ProjectDebt) PortfolioResult {
	out := PortfolioResult{TotalRate: yieldPct + spreadPct}
	for _, p := range projects {
		res := Compute(yieldPct, spreadPct, p.Principal, p.TermYears)
		out.GrandPrincipal += p.Principal
		out.GrandAnnual += res.AnnualPayment
		out.GrandInterest += res.TotalInterest
	}
	return out
}

// Round returns v rounded to the given number of decimal places. Used only
// when building the persisted record.
func Round(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
