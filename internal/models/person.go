package models

// Person is someone who participates in shared expenses.
//
// Email is the primary key and the person's stable identity. It is the
// only identifier: Group.Members and Expense.PaidBy/SplitAmong all hold
// email addresses.
type Person struct {
	// Email uniquely identifies the person.
	Email string `json:"email"`

	// Name is the display name.
	Name string `json:"name"`

	// Avatar is an optional image URI.
	Avatar string `json:"avatar,omitempty"`
}
