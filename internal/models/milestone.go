package models

// MilestonePayment представляет этап графика платежей отклика.
// Для авторитетного набора этапов сумма процентов должна равняться 100
// с допуском 0.01; черновики в процессе переговоров могут временно нарушать
// это условие, но должны быть помечены.
type MilestonePayment struct {
	ID          string  `json:"id"`
	ProposalID  string  `json:"proposalId"`
	Description string  `json:"description"`
	Trigger     string  `json:"trigger,omitempty"`
	Percentage  float64 `json:"percentage"`
}

// MilestoneAdjustmentDraft - транзитная запись редактирования этапа.
// Не сохраняется до создания сессии; нужна только для проверки того,
// что целевой набор процентов в сумме даёт 100.
type MilestoneAdjustmentDraft struct {
	MilestoneID        string  `json:"milestoneId"`
	OriginalPercentage float64 `json:"originalPercentage"`
	TargetPercentage   float64 `json:"targetPercentage"`
	InitiatorNote      string  `json:"initiatorNote,omitempty"`
}
