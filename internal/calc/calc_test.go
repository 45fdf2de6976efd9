package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muniwatch/debt-service/internal/models"
)

func TestComputeRateAdditivity(t *testing.T) {
	cases := []struct{ yield, spread float64 }{
		{3.861, 1.10},
		{0.5, 0},
		{4.0, 2.25},
		{12.75, 0.01},
	}
	for _, c := range cases {
		res := Compute(c.yield, c.spread, 1000000, 25)
		assert.Equal(t, c.yield+c.spread, res.TotalRate, "total rate must be the exact sum before rounding")
	}
}

func TestComputeDeterministic(t *testing.T) {
	a := Compute(3.861, 1.10, 140000000, 30)
	b := Compute(3.861, 1.10, 140000000, 30)
	assert.Equal(t, a, b)
}

func TestComputeAnnuityIdentity(t *testing.T) {
	res := Compute(3.861, 1.10, 140000000, 30)

	totalCost := res.AnnualPayment * 30
	assert.InDelta(t, totalCost-140000000, res.TotalInterest, 1e-6)

	// Against direct formula evaluation, not a hard-coded constant.
	r := 4.961 / 100
	growth := math.Pow(1+r, 30)
	want := 140000000 * (r * growth) / (growth - 1)
	require.InDelta(t, want, res.AnnualPayment, 1e-6)
	assert.Greater(t, res.AnnualPayment, 8.3e6)
	assert.Less(t, res.AnnualPayment, 8.4e6)
}

func TestComputeZeroRate(t *testing.T) {
	res := Compute(0, 0, 140000000, 30)
	assert.Equal(t, 140000000.0/30, res.AnnualPayment, "zero rate must take the straight-line path")
	assert.InDelta(t, 0, res.TotalInterest, 1e-6)
}

func TestComputePortfolioSumsProjects(t *testing.T) {
	projects := []models.ProjectDebt{
		{Name: "arena", Principal: 140000000, TermYears: 30},
		{Name: "bridge", Principal: 25000000, TermYears: 20},
		{Name: "library", Principal: 8000000, TermYears: 10},
	}

	agg := ComputePortfolio(3.861, 1.10, projects)

	var wantAnnual, wantInterest, wantPrincipal float64
	for _, p := range projects {
		res := Compute(3.861, 1.10, p.Principal, p.TermYears)
		wantAnnual += res.AnnualPayment
		wantInterest += res.TotalInterest
		wantPrincipal += p.Principal
	}
	assert.InDelta(t, wantAnnual, agg.GrandAnnual, 1e-6)
	assert.InDelta(t, wantInterest, agg.GrandInterest, 1e-6)
	assert.InDelta(t, wantPrincipal, agg.GrandPrincipal, 1e-6)

	// Order must not matter.
	reversed := []models.ProjectDebt{projects[2], projects[1], projects[0]}
	aggRev := ComputePortfolio(3.861, 1.10, reversed)
	assert.InDelta(t, agg.GrandAnnual, aggRev.GrandAnnual, 1e-4)
	assert.InDelta(t, agg.GrandInterest, aggRev.GrandInterest, 1e-4)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 4.961, Round(4.9609999, 3))
	assert.Equal(t, 8372091.04, Round(8372091.0449, 2))
	assert.Equal(t, -1.5, Round(-1.4999, 2))
}
