package secondary

import (
	"context"
	"time"
)

// PrisonerDirectory defines the secondary port for looking up sentence and
// location facts about a person. Failures to reach the directory are returned
// as schedule.TransientError; an unknown person as schedule.NotFoundError.
type PrisonerDirectory interface {
	GetPrisoner(ctx context.Context, personID string) (*Prisoner, error)
}

// Prisoner is the subset of prisoner data the schedule engine uses.
type Prisoner struct {
	PersonID        string
	PrisonID        string
	SentenceType    string
	AdmissionReason string
	ReleaseDate     *time.Time
}
