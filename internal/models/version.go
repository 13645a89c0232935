package models

import "time"

// BaselineChangeReason - причина изменения для синтезированной первой версии.
const BaselineChangeReason = "initial version"

// ProposalVersion представляет неизменяемый снимок отклика.
// Номера версий для одного отклика монотонны и непрерывны, начиная с 1;
// созданная версия никогда не меняется - исправления порождают новую версию.
type ProposalVersion struct {
	ID            string        `json:"id"`
	ProposalID    string        `json:"proposalId"`
	VersionNumber int           `json:"versionNumber"`
	Price         float64       `json:"price"`
	TimelineDays  int           `json:"timelineDays"`
	ScopeText     string        `json:"scopeText"`
	Terms         string        `json:"terms"`
	ChangeReason  string        `json:"changeReason"`
	CreatedAt     time.Time     `json:"createdAt"`
	LineItems     []FeeLineItem `json:"lineItems,omitempty"`
}

// FeeLineItem представляет одну позицию сметы внутри версии отклика.
type FeeLineItem struct {
	ID             string  `json:"id"`
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	UnitPrice      float64 `json:"unitPrice"`
	Total          float64 `json:"total"`
	IsOptional     bool    `json:"isOptional"`
	ChargeType     string  `json:"chargeType"`
	DurationMonths int     `json:"durationMonths,omitempty"`
}

// VersionSnapshot представляет структуру запроса для создания новой версии.
type VersionSnapshot struct {
	Price        float64       `json:"price"`
	TimelineDays int           `json:"timelineDays"`
	ScopeText    string        `json:"scopeText"`
	Terms        string        `json:"terms"`
	ChangeReason string        `json:"changeReason"`
	LineItems    []FeeLineItem `json:"lineItems,omitempty"`
}
