package aggregation

import (
	"math"

	"github.com/senyabanana/negotiation-service/internal/models"
)

// PercentageTolerance - допуск для суммы процентов этапов платежей.
const PercentageTolerance = 0.01

// LineItemTotals - итоги по позициям сметы, разбитые на обязательные
// и опциональные. Grand = Mandatory + Optional; опциональные включаются
// в отображаемый итог только по явному запросу.
type LineItemTotals struct {
	Mandatory float64 `json:"mandatory"`
	Optional  float64 `json:"optional"`
	Grand     float64 `json:"grand"`
}

// ItemTotal возвращает стоимость позиции. Нулевой сохранённый итог считается
// незаполненным, и стоимость выводится как цена за единицу на количество;
// у действительно бесплатной позиции нулю равна и цена за единицу.
func ItemTotal(item models.FeeLineItem) float64 {
	if item.Total != 0 {
		return item.Total
	}
	return item.UnitPrice * item.Quantity
}

// SumLineItems считает итоги по позициям сметы без промежуточного округления.
// Округление откладывается до отображения.
func SumLineItems(items []models.FeeLineItem) LineItemTotals {
	var totals LineItemTotals
	for _, item := range items {
		if item.IsOptional {
			totals.Optional += ItemTotal(item)
		} else {
			totals.Mandatory += ItemTotal(item)
		}
	}
	totals.Grand = totals.Mandatory + totals.Optional
	return totals
}

// MilestoneAmount возвращает сумму этапа от базового итога.
func MilestoneAmount(percentage, baseTotal float64) float64 {
	return baseTotal * percentage / 100
}

// ValidatePercentageTotal проверяет, что сумма процентов этапов равна 100
// в пределах допуска. Возвращает признак валидности и знаковое отклонение
// от 100, чтобы интерфейс мог показать "не хватает 3.5%".
func ValidatePercentageTotal(milestones []models.MilestonePayment, tolerance float64) (bool, float64) {
	var sum float64
	for _, m := range milestones {
		sum += m.Percentage
	}
	delta := sum - 100
	return math.Abs(delta) <= tolerance, delta
}

// ValidateAdjustedPercentages проверяет объединение нескорректированных этапов
// (с исходным процентом) и скорректированных (с целевым процентом) до
// сохранения сессии.
func ValidateAdjustedPercentages(milestones []models.MilestonePayment, drafts []models.MilestoneAdjustmentDraft, tolerance float64) (bool, float64) {
	targets := make(map[string]float64, len(drafts))
	for _, d := range drafts {
		targets[d.MilestoneID] = d.TargetPercentage
	}

	adjusted := make([]models.MilestonePayment, 0, len(milestones))
	for _, m := range milestones {
		if target, ok := targets[m.ID]; ok {
			m.Percentage = target
		}
		adjusted = append(adjusted, m)
	}
	return ValidatePercentageTotal(adjusted, tolerance)
}
