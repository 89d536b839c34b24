package domain

import "time"

// AuditAction captures what happened in an audit entry.
type AuditAction string

const (
	AuditActionCreate       AuditAction = "CREATE"
	AuditActionUpdate       AuditAction = "UPDATE"
	AuditActionAllocate     AuditAction = "ALLOCATE"
	AuditActionStatusChange AuditAction = "STATUS_CHANGE"
	AuditActionEscalate     AuditAction = "ESCALATE"
	AuditActionRescore      AuditAction = "RESCORE"
)

// AuditEntityType names the entity an audit entry refers to.
type AuditEntityType string

const (
	AuditEntityCase AuditEntityType = "CASE"
	AuditEntityDCA  AuditEntityType = "DCA"
	AuditEntityUser AuditEntityType = "USER"
)

// AuditLog is an immutable trail entry for accepted mutations.
type AuditLog struct {
	ID         string
	EntityType AuditEntityType
	EntityID   string
	Action     AuditAction
	OldValues  map[string]any
	NewValues  map[string]any
	ActorID    *string
	Timestamp  time.Time
}
