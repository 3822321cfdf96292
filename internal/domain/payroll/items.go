package payroll

import (
	"strconv"
	"strings"
)

// AddItem appends a zero-amount custom item to the list matching itemType
// and returns the recalculated payslip together with the new item.
func AddItem(p Payslip, itemType ItemType, id string) (Payslip, Item, error) {
	if !itemType.Valid() {
		return p, Item{}, ErrInvalidItemType
	}
	if _, _, found := locateItem(p, id); found {
		return p, Item{}, ErrDuplicateItemID
	}

	item := Item{ID: id, Type: itemType, Category: CategoryCustom}
	out := p.clone()
	if itemType == ItemEarning {
		item.Label = "New earning"
		out.Earnings = append(out.Earnings, item)
	} else {
		item.Label = "New deduction"
		out.Deductions = append(out.Deductions, item)
	}
	return RecalcPayslip(out), item, nil
}

// RemoveItem drops the item with the given id from whichever list holds it.
func RemoveItem(p Payslip, itemID string) (Payslip, error) {
	itemType, idx, found := locateItem(p, itemID)
	if !found {
		return p, ErrItemNotFound
	}

	out := p.clone()
	if itemType == ItemEarning {
		out.Earnings = append(out.Earnings[:idx], out.Earnings[idx+1:]...)
	} else {
		out.Deductions = append(out.Deductions[:idx], out.Deductions[idx+1:]...)
	}
	return RecalcPayslip(out), nil
}

// EditItem changes the label or amount of one item. Amounts must parse as a
// finite number; otherwise ErrInvalidAmount is returned and p is unchanged.
// A manual amount on a formula deduction or an hourly earning replaces the
// formula, so the item becomes custom.
func EditItem(p Payslip, itemID string, field Field, value string) (Payslip, error) {
	itemType, idx, found := locateItem(p, itemID)
	if !found {
		return p, ErrItemNotFound
	}

	out := p.clone()
	list := out.Earnings
	if itemType == ItemDeduction {
		list = out.Deductions
	}
	item := &list[idx]

	switch field {
	case FieldLabel:
		label := strings.TrimSpace(value)
		if label == "" {
			return p, ErrLabelRequired
		}
		item.Label = label
	case FieldAmount:
		amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || !finite(amount) {
			return p, ErrInvalidAmount
		}
		item.Amount = amount
		if item.formulaDriven() || item.Hours != nil || item.HourlyRate != nil {
			item.Category = CategoryCustom
			item.Rate = nil
			item.Hours = nil
			item.HourlyRate = nil
		}
	default:
		return p, ErrUnknownField
	}
	return RecalcPayslip(out), nil
}

func locateItem(p Payslip, itemID string) (ItemType, int, bool) {
	for i, it := range p.Earnings {
		if it.ID == itemID {
			return ItemEarning, i, true
		}
	}
	for i, it := range p.Deductions {
		if it.ID == itemID {
			return ItemDeduction, i, true
		}
	}
	return "", -1, false
}
