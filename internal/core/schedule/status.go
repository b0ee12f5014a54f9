package schedule

// Status represents the lifecycle state of a schedule.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusComplete  Status = "COMPLETE"

	// Prisoner and prison circumstance exemptions. These are set and cleared
	// through explicit API actions.
	StatusExemptPrisonerDrugOrAlcoholDependency Status = "EXEMPT_PRISONER_DRUG_OR_ALCOHOL_DEPENDENCY"
	StatusExemptPrisonerOtherHealthIssues       Status = "EXEMPT_PRISONER_OTHER_HEALTH_ISSUES"
	StatusExemptPrisonerFailedToEngage          Status = "EXEMPT_PRISONER_FAILED_TO_ENGAGE"
	StatusExemptPrisonerEscapedOrAbsconded      Status = "EXEMPT_PRISONER_ESCAPED_OR_ABSCONDED"
	StatusExemptPrisonerSafetyIssues            Status = "EXEMPT_PRISONER_SAFETY_ISSUES"
	StatusExemptPrisonRegimeCircumstances       Status = "EXEMPT_PRISON_REGIME_CIRCUMSTANCES"
	StatusExemptPrisonStaffRedeployment         Status = "EXEMPT_PRISON_STAFF_REDEPLOYMENT"
	StatusExemptPrisonOperationOrSecurityIssue  Status = "EXEMPT_PRISON_OPERATION_OR_SECURITY_ISSUE"
	StatusExemptSecurityIssueRiskToStaff        Status = "EXEMPT_SECURITY_ISSUE_RISK_TO_STAFF"
	StatusExemptSystemTechnicalIssue            Status = "EXEMPT_SYSTEM_TECHNICAL_ISSUE"

	// Movement exemptions, set by the event pipeline.
	StatusExemptPrisonerTransfer Status = "EXEMPT_PRISONER_TRANSFER"
	StatusExemptPrisonerRelease  Status = "EXEMPT_PRISONER_RELEASE"
	StatusExemptPrisonerDeath    Status = "EXEMPT_PRISONER_DEATH"

	// Review only.
	StatusExemptPrisonerMerge Status = "EXEMPT_PRISONER_MERGE"
	StatusExemptUnknown       Status = "EXEMPT_UNKNOWN"
)

var circumstanceExemptions = map[Status]bool{
	StatusExemptPrisonerDrugOrAlcoholDependency: true,
	StatusExemptPrisonerOtherHealthIssues:       true,
	StatusExemptPrisonerFailedToEngage:          true,
	StatusExemptPrisonerEscapedOrAbsconded:      true,
	StatusExemptPrisonerSafetyIssues:            true,
	StatusExemptPrisonRegimeCircumstances:       true,
	StatusExemptPrisonStaffRedeployment:         true,
	StatusExemptPrisonOperationOrSecurityIssue:  true,
	StatusExemptSecurityIssueRiskToStaff:        true,
	StatusExemptSystemTechnicalIssue:            true,
}

var movementExemptions = map[Kind]map[Status]bool{
	KindInduction: {
		StatusExemptPrisonerTransfer: true,
		StatusExemptPrisonerRelease:  true,
		StatusExemptPrisonerDeath:    true,
	},
	KindReview: {
		StatusExemptPrisonerTransfer: true,
		StatusExemptPrisonerRelease:  true,
		StatusExemptPrisonerDeath:    true,
		StatusExemptPrisonerMerge:    true,
		StatusExemptUnknown:          true,
	},
}

// reactivatableOnReceipt lists the exemptions lifted when the person is
// received back into the estate.
var reactivatableOnReceipt = map[Kind]map[Status]bool{
	KindInduction: {
		StatusExemptPrisonerTransfer: true,
	},
	KindReview: {
		StatusExemptPrisonerTransfer: true,
		StatusExemptPrisonerRelease:  true,
		StatusExemptUnknown:          true,
	},
}

// overridingExemptions replace any other exemption already in place.
var overridingExemptions = map[Status]bool{
	StatusExemptPrisonerDeath: true,
	StatusExemptPrisonerMerge: true,
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusComplete
}

// IsExemption reports whether s is one of the EXEMPT_* statuses.
func (s Status) IsExemption() bool {
	if circumstanceExemptions[s] {
		return true
	}
	return movementExemptions[KindReview][s]
}

// IsCircumstanceExemption reports whether s is an exemption recorded by staff
// for prisoner or prison circumstances.
func (s Status) IsCircumstanceExemption() bool {
	return circumstanceExemptions[s]
}

// ValidFor reports whether the status exists for the given schedule kind.
func (s Status) ValidFor(kind Kind) bool {
	switch {
	case s == StatusScheduled, s == StatusComplete:
		return true
	case circumstanceExemptions[s]:
		return true
	default:
		return movementExemptions[kind][s]
	}
}

// ReactivatableOnReceipt reports whether an exemption of this kind is lifted
// when the person is received into a prison.
func (s Status) ReactivatableOnReceipt(kind Kind) bool {
	return reactivatableOnReceipt[kind][s]
}

// ParseStatus converts a wire value into a Status valid for kind.
func ParseStatus(kind Kind, value string) (Status, bool) {
	s := Status(value)
	return s, s.ValidFor(kind)
}
