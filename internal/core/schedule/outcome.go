package schedule

// Outcome is the normal-flow result of a schedule operation. Expected
// conditions such as an existing active schedule are outcomes, not errors.
type Outcome string

const (
	OutcomeCreated       Outcome = "created"
	OutcomeUpdated       Outcome = "updated"
	OutcomeAlreadyExists Outcome = "already_exists"
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeRejected      Outcome = "rejected"
)
