package model

// Task priorities and states.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// Task is a to-do item, optionally tied to an order.
type Task struct {
	Meta
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority" validate:"oneof=low medium high"`
	DueDate     Date   `json:"dueDate" validate:"day"`
	OrderID     Ref    `json:"orderId"`
	Notes       string `json:"notes"`
}

func (t *Task) applyDefaults() {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

// Note is a free-form memo, optionally tagged and linked to another record.
type Note struct {
	Meta
	Title    string `json:"title" validate:"required_without=Content"`
	Content  string `json:"content" validate:"required_without=Title"`
	Tag      Ref    `json:"tag"`
	LinkType string `json:"linkType,omitempty" validate:"omitempty,oneof=order client task material"`
	LinkID   Ref    `json:"linkId"`
	Pinned   bool   `json:"pinned"`
}

func (n *Note) applyDefaults() {}

// DefaultTagColor is used for tags saved without a color.
const DefaultTagColor = "#6366f1"

// Tag labels notes.
type Tag struct {
	Meta
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

func (t *Tag) applyDefaults() {
	if t.Color == "" {
		t.Color = DefaultTagColor
	}
}
