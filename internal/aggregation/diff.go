package aggregation

import "github.com/senyabanana/negotiation-service/internal/models"

type ItemChange string // Вид изменения позиции между версиями

const (
	AddedItem   ItemChange = "added"   // Позиция появилась в новой версии
	RemovedItem ItemChange = "removed" // Позиция исчезла в новой версии
	ChangedItem ItemChange = "changed" // Позиция сопоставлена, стоимость изменилась
	KeptItem    ItemChange = "kept"    // Позиция сопоставлена, стоимость не изменилась
)

// ItemDiff - изменение одной позиции сметы между двумя версиями.
type ItemDiff struct {
	Description string     `json:"description"`
	Change      ItemChange `json:"change"`
	OldTotal    float64    `json:"oldTotal"`
	NewTotal    float64    `json:"newTotal"`
	Delta       float64    `json:"delta"`
}

// VersionDiff - итог сравнения двух версий отклика.
type VersionDiff struct {
	PriceDelta   float64    `json:"priceDelta"`
	PercentDelta float64    `json:"percentDelta"`
	ItemDiffs    []ItemDiff `json:"itemDiffs"`
}

// DiffVersions сравнивает две версии отклика. Позиции сопоставляются сначала
// по id, затем по описанию - это покрывает перенумерованные, но не
// переименованные позиции после переговорной правки. Несопоставленные позиции
// новой версии отражаются как добавления, старой - как удаления, с полной
// дельтой стоимости.
func DiffVersions(a, b models.ProposalVersion) VersionDiff {
	diff := VersionDiff{PriceDelta: b.Price - a.Price}
	if a.Price != 0 {
		diff.PercentDelta = diff.PriceDelta / a.Price * 100
	}

	matchedB := make([]bool, len(b.LineItems))

	for _, oldItem := range a.LineItems {
		idx := matchLineItem(oldItem, b.LineItems, matchedB)
		if idx < 0 {
			diff.ItemDiffs = append(diff.ItemDiffs, ItemDiff{
				Description: oldItem.Description,
				Change:      RemovedItem,
				OldTotal:    ItemTotal(oldItem),
				Delta:       0 - ItemTotal(oldItem),
			})
			continue
		}
		matchedB[idx] = true
		newItem := b.LineItems[idx]
		itemDiff := ItemDiff{
			Description: newItem.Description,
			Change:      KeptItem,
			OldTotal:    ItemTotal(oldItem),
			NewTotal:    ItemTotal(newItem),
			Delta:       ItemTotal(newItem) - ItemTotal(oldItem),
		}
		if itemDiff.Delta != 0 {
			itemDiff.Change = ChangedItem
		}
		diff.ItemDiffs = append(diff.ItemDiffs, itemDiff)
	}

	for i, newItem := range b.LineItems {
		if matchedB[i] {
			continue
		}
		diff.ItemDiffs = append(diff.ItemDiffs, ItemDiff{
			Description: newItem.Description,
			Change:      AddedItem,
			NewTotal:    ItemTotal(newItem),
			Delta:       ItemTotal(newItem) - 0,
		})
	}
	return diff
}

// matchLineItem ищет пару для позиции: сначала по id, затем по описанию.
func matchLineItem(item models.FeeLineItem, candidates []models.FeeLineItem, taken []bool) int {
	for i, c := range candidates {
		if !taken[i] && c.ID != "" && c.ID == item.ID {
			return i
		}
	}
	for i, c := range candidates {
		if !taken[i] && c.Description == item.Description {
			return i
		}
	}
	return -1
}
