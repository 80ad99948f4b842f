package models

// Expense is a single shared cost paid by one person and split among
// a set of people.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Description is what the expense was for.
	Description string `json:"description"`

	// Amount is the total cost. Always positive.
	Amount float64 `json:"amount"`

	// PaidBy is the email of the person who paid.
	PaidBy string `json:"paidByEmail"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"groupId"`

	// SplitAmong holds the emails of the people sharing the cost,
	// deduplicated and never empty. The payer may appear in the split;
	// that portion nets out to zero.
	SplitAmong []string `json:"splitAmong"`

	// Date is the RFC 3339 creation timestamp. Set once when the
	// expense is recorded, immutable thereafter.
	Date string `json:"date"`
}
