package entities

import "time"

// Event types
const (
	EventIncome  = "income"
	EventExpense = "expense"
)

// UncategorizedLabel is used when an event carries no category.
const UncategorizedLabel = "Sin categoría"

// Event represents a single income or expense record owned by a user
type Event struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        int64     `json:"date"` // Unix seconds
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Attachment  string    `json:"attachment"`
	Category    string    `json:"category,omitempty"`
	UserID      string    `json:"user"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (e *Event) IsIncome() bool {
	return e.Type == EventIncome
}

// CategoryLabel returns the category used for grouping.
func (e *Event) CategoryLabel() string {
	if e.Category == "" {
		return UncategorizedLabel
	}
	return e.Category
}

// IsValidEventType reports whether t is income or expense.
func IsValidEventType(t string) bool {
	return t == EventIncome || t == EventExpense
}
