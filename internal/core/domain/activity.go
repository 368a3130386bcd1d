package domain

import "time"

// Activity actions recorded by the services.
const (
	ActionProfileCreated        = "profile.created"
	ActionProfileUpdated        = "profile.updated"
	ActionProfileDeleted        = "profile.deleted"
	ActionTaskCreated           = "task.created"
	ActionTaskUpdated           = "task.updated"
	ActionTaskDeleted           = "task.deleted"
	ActionIntegrationConnect    = "integration.connected"
	ActionIntegrationDisconnect = "integration.disconnected"
	ActionLeadReceived          = "lead.received"
)

// ActivityEntry is one row of the append-only audit trail.
type ActivityEntry struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"owner_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Summary    string         `json:"summary"`
	Meta       map[string]any `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Valid reports whether the required fields are present.
func (e *ActivityEntry) Valid() bool {
	return e.OwnerID != "" && e.Action != "" && e.EntityType != ""
}

// ActivityPage is one page of an owner's activity, newest first.
type ActivityPage struct {
	Data    []ActivityEntry `json:"data"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Pages   int             `json:"pages"`
}

// PageCount returns ceil(total/perPage).
func PageCount(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
