package domain

import "time"

// Task is a to-do item owned by a profile.
type Task struct {
	ID        string     `json:"id" bson:"_id"`
	OwnerID   string     `json:"owner_id" bson:"owner_id"`
	Title     string     `json:"title" bson:"title"`
	Notes     string     `json:"notes,omitempty" bson:"notes,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty" bson:"due_at,omitempty"`
	Completed bool       `json:"completed" bson:"completed"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}
