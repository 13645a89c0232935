package aggregation

import (
	"testing"

	"github.com/senyabanana/negotiation-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestItemTotal(t *testing.T) {
	stored := models.FeeLineItem{Quantity: 3, UnitPrice: 500, Total: 1400}
	assert.InDelta(t, 1400, ItemTotal(stored), 0.001)

	derived := models.FeeLineItem{Quantity: 3, UnitPrice: 500}
	assert.InDelta(t, 1500, ItemTotal(derived), 0.001)

	// Нулевой сохранённый итог трактуется как незаполненный: стоимость
	// выводится из цены за единицу. Бесплатная позиция обнуляет и её.
	zeroTotal := models.FeeLineItem{Quantity: 2, UnitPrice: 500, Total: 0}
	assert.InDelta(t, 1000, ItemTotal(zeroTotal), 0.001)

	free := models.FeeLineItem{Quantity: 2, UnitPrice: 0, Total: 0}
	assert.Zero(t, ItemTotal(free))
}

func TestSumLineItems_SplitsMandatoryAndOptional(t *testing.T) {
	items := []models.FeeLineItem{
		{Description: "development", Total: 80000},
		{Description: "support", Total: 20000, IsOptional: true},
	}

	totals := SumLineItems(items)
	assert.InDelta(t, 80000, totals.Mandatory, 0.001)
	assert.InDelta(t, 20000, totals.Optional, 0.001)
	assert.InDelta(t, 100000, totals.Grand, 0.001)
}

func TestSumLineItems_Empty(t *testing.T) {
	totals := SumLineItems(nil)
	assert.Zero(t, totals.Mandatory)
	assert.Zero(t, totals.Optional)
	assert.Zero(t, totals.Grand)
}

func TestMilestoneAmount(t *testing.T) {
	assert.InDelta(t, 24000, MilestoneAmount(30, 80000), 0.001)
	assert.InDelta(t, 0, MilestoneAmount(0, 80000), 0.001)
	assert.InDelta(t, 80000, MilestoneAmount(100, 80000), 0.001)
}

func TestValidatePercentageTotal(t *testing.T) {
	cases := []struct {
		name        string
		percentages []float64
		valid       bool
		delta       float64
	}{
		{"exact", []float64{30, 70}, true, 0},
		{"within tolerance", []float64{33.33, 33.33, 33.335}, true, -0.005},
		{"undershoot", []float64{50, 46.5}, false, -3.5},
		{"overshoot", []float64{60, 45}, false, 5},
		{"empty", nil, false, -100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			milestones := make([]models.MilestonePayment, len(tc.percentages))
			for i, p := range tc.percentages {
				milestones[i] = models.MilestonePayment{Percentage: p}
			}
			valid, delta := ValidatePercentageTotal(milestones, PercentageTolerance)
			assert.Equal(t, tc.valid, valid)
			assert.InDelta(t, tc.delta, delta, 0.0001)
		})
	}
}

func TestValidateAdjustedPercentages(t *testing.T) {
	milestones := []models.MilestonePayment{
		{ID: "m1", Percentage: 50},
		{ID: "m2", Percentage: 50},
	}

	// Черновик правит только m2; m1 участвует с исходным процентом.
	valid, delta := ValidateAdjustedPercentages(milestones, []models.MilestoneAdjustmentDraft{
		{MilestoneID: "m2", TargetPercentage: 47},
	}, PercentageTolerance)
	assert.False(t, valid)
	assert.InDelta(t, -3, delta, 0.0001)

	valid, delta = ValidateAdjustedPercentages(milestones, []models.MilestoneAdjustmentDraft{
		{MilestoneID: "m1", TargetPercentage: 30},
		{MilestoneID: "m2", TargetPercentage: 70},
	}, PercentageTolerance)
	assert.True(t, valid)
	assert.InDelta(t, 0, delta, 0.0001)
}
