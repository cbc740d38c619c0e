package model

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a persisted entity type. Kinds are lower-case and appear in storage keys.
type Kind string

const (
	KindUser             Kind = "user"
	KindAuthToken        Kind = "authtoken"
	KindClub             Kind = "club"
	KindPlayer           Kind = "player"
	KindMatchPerformance Kind = "matchperformance"
	KindBoardObjective   Kind = "boardobjective"
)

// Kinds lists every entity kind
func Kinds() []Kind {
	return []Kind{KindUser, KindAuthToken, KindClub, KindPlayer, KindMatchPerformance, KindBoardObjective}
}

// SystemActor is recorded as CreatedBy when no actor is attached to the request
const SystemActor = "system"

// Audit holds the bookkeeping fields stamped by the store.
// Values supplied by callers are overwritten.
type Audit struct {
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
	CreatedBy        string    `json:"created_by"`
}

// AuditRecord exposes the audit fields to the store
func (a *Audit) AuditRecord() *Audit {
	return a
}

// Stamp sets all audit fields for a newly inserted entity
func (a *Audit) Stamp(now time.Time, actor string) {
	if actor == "" {
		actor = SystemActor
	}
	a.CreatedDate = now
	a.LastModifiedDate = now
	a.CreatedBy = actor
}

// Carry keeps the creation fields of stored and stamps the modification time
func (a *Audit) Carry(stored Audit, now time.Time) {
	a.CreatedDate = stored.CreatedDate
	a.CreatedBy = stored.CreatedBy
	a.LastModifiedDate = now
}

// Record is implemented by pointers to every entity type
type Record[E any] interface {
	*E
	EntityID() uuid.UUID
	SetEntityID(id uuid.UUID)
	AuditRecord() *Audit
	// SeedHistory initialises every versioned field's history to [current]
	SeedHistory()
	// AdvanceHistory derives each versioned field's history from the stored version
	AdvanceHistory(stored *E)
}
