package payroll

type ItemType string

const (
	ItemEarning   ItemType = "earning"
	ItemDeduction ItemType = "deduction"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemEarning, ItemDeduction:
		return true
	}
	return false
}

// Category tags a line item. Deductions in any category other than
// CategoryCustom that carry a rate are recomputed from gross pay.
type Category string

const (
	CategoryCustom     Category = "custom"
	CategoryBase       Category = "base"
	CategoryBonus      Category = "bonus"
	CategoryAllowance  Category = "allowance"
	CategoryOvertime   Category = "overtime"
	CategoryPercentage Category = "percentage"
	CategorySocial     Category = "social"
	CategoryHealth     Category = "health"
	CategoryIncomeTax  Category = "income_tax"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCustom, CategoryBase, CategoryBonus, CategoryAllowance, CategoryOvertime,
		CategoryPercentage, CategorySocial, CategoryHealth, CategoryIncomeTax:
		return true
	}
	return false
}

type Field string

const (
	FieldLabel  Field = "label"
	FieldAmount Field = "amount"
)

const (
	BaseSalaryItemID  = "base-salary"
	BonusItemID       = "bonus"
	WithholdingItemID = "withholding"

	// GenerationWithholdingRate is the single deduction rule applied when a
	// payroll run is first generated.
	GenerationWithholdingRate = 0.10
)

const (
	ReasonAlreadyGenerated = "payroll already generated for this period"
	ReasonNoEligibleStaff  = "no eligible staff: no active salaried staff member with a positive rate"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)
