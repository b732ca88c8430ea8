// Package audit records how identity clusters change over time: which primary
// absorbed which contacts, and which records were created along the way. The
// trail is append-only and processed off the request path.
package audit

import (
	"time"

	id "linkage/pkg/domain"
)

// Actions emitted by the consolidation service.
const (
	ActionPrimaryCreated   = "contact.primary_created"
	ActionSecondaryCreated = "contact.secondary_created"
	ActionClustersMerged   = "contact.clusters_merged"
)

// Event captures one change to an identity cluster. Keep it transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    string
	PrimaryID id.ContactID
	ContactID id.ContactID // the record created or demoted, when applicable
	Demoted   int          // primaries demoted during a merge
	RequestID string
}
