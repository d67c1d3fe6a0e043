package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published on the expense change stream.
const (
	EventExpenseCreated       = "expense.created"
	EventExpenseUpdated       = "expense.updated"
	EventExpenseStatusChanged = "expense.status_changed"
	EventExpenseDeleted       = "expense.deleted"
)

// ExpenseEvent is a lightweight change notification. It carries only
// identifiers and the new status; consumers fetch the full record from
// storage when they need it.
type ExpenseEvent struct {
	Type      string    `json:"type"`
	ExpenseID int64     `json:"expenseId"`
	UserID    int64     `json:"userId"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event stamped with the current time.
func NewExpenseEvent(eventType string, expenseID, userID int64, status string) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      eventType,
		ExpenseID: expenseID,
		UserID:    userID,
		Status:    status,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON creates an event from JSON bytes
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var event ExpenseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
