package domain

import "time"

// EquipmentStatus reflects whether an item can be loaned out.
type EquipmentStatus string

// Equipment statuses.
const (
	EquipmentAvailable   EquipmentStatus = "available"
	EquipmentCheckedOut  EquipmentStatus = "checked_out"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentRetired     EquipmentStatus = "retired"
)

// Valid reports whether the status is a known value.
func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentAvailable, EquipmentCheckedOut, EquipmentMaintenance, EquipmentRetired:
		return true
	default:
		return false
	}
}

// Equipment is a loanable item in the inventory (cameras, recorders,
// tripods).
type Equipment struct {
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	SerialNo    string          `json:"serial_no,omitempty"`
	Status      EquipmentStatus `json:"status"`
}

// Loanable reports whether a checkout can be started.
func (e *Equipment) Loanable() bool {
	return e.Status == EquipmentAvailable
}

// EquipmentLoan records one checkout. ReturnedAt is nil while the
// loan is open; at most one open loan exists per item.
type EquipmentLoan struct {
	CheckedOutAt time.Time  `json:"checked_out_at"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	ID           string     `json:"id"`
	EquipmentID  string     `json:"equipment_id"`
	BorrowerID   string     `json:"borrower_id"`
	Notes        string     `json:"notes,omitempty"`
}

// Open reports whether the item is still out.
func (l *EquipmentLoan) Open() bool {
	return l.ReturnedAt == nil
}

// IsOverdue reports whether an open loan is past its due time.
func (l *EquipmentLoan) IsOverdue(now time.Time) bool {
	return l.Open() && l.DueAt != nil && now.After(*l.DueAt)
}
