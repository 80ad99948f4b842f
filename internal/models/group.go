package models

// Group is a named set of people who split expenses together.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Trip", "Roommates").
	Name string `json:"name"`

	// Description is an optional free-form note.
	Description string `json:"description,omitempty"`

	// Members holds the email addresses of the group's people.
	// Insertion order is preserved for display; it carries no other
	// meaning. A member email may reference a person that no longer
	// exists, consumers render such entries as "Unknown".
	Members []string `json:"members"`

	// Expenses is a denormalized list of expense IDs belonging to this
	// group. It is kept for display convenience and is not
	// authoritative; Expense.GroupID is.
	Expenses []string `json:"expenses"`
}
