// Package calculation contains the pure schedule calculation rules: which
// calculation rule applies to a person, and the deadline or review window the
// rule produces. There are no side effects and no day counts outside Table.
package calculation

import (
	"time"

	"github.com/example/plp/internal/core/schedule"
)

// Induction calculation rules.
const (
	InductionNewPrisonAdmission                     schedule.CalculationRule = "NEW_PRISON_ADMISSION"
	InductionPrisonerTransfer                       schedule.CalculationRule = "PRISONER_TRANSFER"
	InductionExistingPrisonerLessThan6MonthsToServe schedule.CalculationRule = "EXISTING_PRISONER_LESS_THAN_6_MONTHS_TO_SERVE"
	InductionExistingPrisonerBetween6And12Months    schedule.CalculationRule = "EXISTING_PRISONER_BETWEEN_6_AND_12_MONTHS_TO_SERVE"
	InductionExistingPrisonerOver12MonthsToServe    schedule.CalculationRule = "EXISTING_PRISONER_OVER_12_MONTHS_TO_SERVE"
	InductionExistingPrisonerIndeterminateSentence  schedule.CalculationRule = "EXISTING_PRISONER_INDETERMINATE_SENTENCE"
	InductionExistingPrisonerOnRemand               schedule.CalculationRule = "EXISTING_PRISONER_ON_REMAND"
	InductionExistingPrisonerUnSentenced            schedule.CalculationRule = "EXISTING_PRISONER_UN_SENTENCED"
)

// Review calculation rules.
const (
	ReviewPrisonerReadmission             schedule.CalculationRule = "PRISONER_READMISSION"
	ReviewPrisonerTransfer                schedule.CalculationRule = "PRISONER_TRANSFER"
	ReviewBetweenReleaseAnd3MonthsToServe schedule.CalculationRule = "BETWEEN_RELEASE_AND_3_MONTHS_TO_SERVE"
	ReviewBetween3MonthsAnd6MonthsToServe schedule.CalculationRule = "BETWEEN_3_MONTHS_AND_6_MONTHS_TO_SERVE"
	ReviewBetween6And12MonthsToServe      schedule.CalculationRule = "BETWEEN_6_AND_12_MONTHS_TO_SERVE"
	ReviewBetween12And60MonthsToServe     schedule.CalculationRule = "BETWEEN_12_AND_60_MONTHS_TO_SERVE"
	ReviewMoreThan60MonthsToServe         schedule.CalculationRule = "MORE_THAN_60_MONTHS_TO_SERVE"
	ReviewIndeterminateSentence           schedule.CalculationRule = "INDETERMINATE_SENTENCE"
	ReviewPrisonerOnRemand                schedule.CalculationRule = "PRISONER_ON_REMAND"
	ReviewPrisonerUnSentenced             schedule.CalculationRule = "PRISONER_UN_SENTENCED"
)

// SentenceType is the legal status reported by the prisoner directory.
type SentenceType string

const (
	SentenceSentenced            SentenceType = "SENTENCED"
	SentenceRecall               SentenceType = "RECALL"
	SentenceIndeterminate        SentenceType = "INDETERMINATE_SENTENCE"
	SentenceRemand               SentenceType = "REMAND"
	SentenceConvictedUnsentenced SentenceType = "CONVICTED_UNSENTENCED"
	SentenceCivilPrisoner        SentenceType = "CIVIL_PRISONER"
	SentenceImmigrationDetainee  SentenceType = "IMMIGRATION_DETAINEE"
	SentenceDead                 SentenceType = "DEAD"
	SentenceOther                SentenceType = "OTHER"
	SentenceUnknown              SentenceType = "UNKNOWN"
)

// RequiresReleaseDate reports whether review timing for this sentence type is
// derived from the release date.
func (s SentenceType) RequiresReleaseDate() bool {
	return s == SentenceSentenced || s == SentenceRecall
}

// AdmissionReason is why the person is (re)entering the schedule pipeline.
type AdmissionReason string

const (
	AdmissionNew                    AdmissionReason = "NEW_ADMISSION"
	AdmissionTransfer               AdmissionReason = "TRANSFER"
	AdmissionTemporaryAbsenceReturn AdmissionReason = "TEMPORARY_ABSENCE_RETURN"
	AdmissionCourtReturn            AdmissionReason = "COURT_RETURN"
	AdmissionExistingPrisoner       AdmissionReason = "EXISTING_PRISONER"
)

// TimeToServe is the whole number of months between a reference date and the
// release date. Known is false when there is no release date.
type TimeToServe struct {
	Known  bool
	Months int
}

// TimeToServeFrom computes the time left to serve. A release date on or
// before the reference date serves zero months.
func TimeToServeFrom(reference time.Time, release *time.Time) TimeToServe {
	if release == nil {
		return TimeToServe{}
	}
	from := schedule.Day(reference)
	to := schedule.Day(*release)
	if !to.After(from) {
		return TimeToServe{Known: true}
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return TimeToServe{Known: true, Months: months}
}

// InductionRule selects the induction calculation rule. It is total: any
// input it cannot place falls back to NEW_PRISON_ADMISSION.
func InductionRule(sentence SentenceType, tts TimeToServe, reason AdmissionReason) schedule.CalculationRule {
	switch reason {
	case AdmissionNew:
		return InductionNewPrisonAdmission
	case AdmissionTransfer:
		return InductionPrisonerTransfer
	case AdmissionTemporaryAbsenceReturn, AdmissionCourtReturn, AdmissionExistingPrisoner:
		return existingPrisonerInductionRule(sentence, tts)
	}
	return InductionNewPrisonAdmission
}

func existingPrisonerInductionRule(sentence SentenceType, tts TimeToServe) schedule.CalculationRule {
	switch sentence {
	case SentenceIndeterminate:
		return InductionExistingPrisonerIndeterminateSentence
	case SentenceRemand:
		return InductionExistingPrisonerOnRemand
	case SentenceConvictedUnsentenced:
		return InductionExistingPrisonerUnSentenced
	case SentenceSentenced, SentenceRecall:
		if !tts.Known {
			return InductionNewPrisonAdmission
		}
		switch {
		case tts.Months < 6:
			return InductionExistingPrisonerLessThan6MonthsToServe
		case tts.Months <= 12:
			return InductionExistingPrisonerBetween6And12Months
		default:
			return InductionExistingPrisonerOver12MonthsToServe
		}
	}
	return InductionNewPrisonAdmission
}

// ReviewInput holds the facts a review rule is derived from.
type ReviewInput struct {
	PersonID      string
	SentenceType  SentenceType
	ReleaseDate   *time.Time
	ReferenceDate time.Time
	IsReadmission bool
	IsTransfer    bool
}

// ReviewRule selects the review calculation rule. Transfer and readmission
// take precedence over sentence data. It fails only when the sentence type
// needs a release date and none is recorded. As for induction, exactly 12
// months to serve falls in the 6 to 12 month band.
func ReviewRule(in ReviewInput) (schedule.CalculationRule, error) {
	if in.IsTransfer {
		return ReviewPrisonerTransfer, nil
	}
	if in.IsReadmission {
		return ReviewPrisonerReadmission, nil
	}

	switch in.SentenceType {
	case SentenceIndeterminate:
		return ReviewIndeterminateSentence, nil
	case SentenceRemand:
		return ReviewPrisonerOnRemand, nil
	case SentenceConvictedUnsentenced:
		return ReviewPrisonerUnSentenced, nil
	case SentenceSentenced, SentenceRecall:
		tts := TimeToServeFrom(in.ReferenceDate, in.ReleaseDate)
		if !tts.Known {
			return "", schedule.NoReleaseDateForSentenceTypeError{PersonID: in.PersonID, SentenceType: string(in.SentenceType)}
		}
		switch {
		case tts.Months < 3:
			return ReviewBetweenReleaseAnd3MonthsToServe, nil
		case tts.Months < 6:
			return ReviewBetween3MonthsAnd6MonthsToServe, nil
		case tts.Months <= 12:
			return ReviewBetween6And12MonthsToServe, nil
		case tts.Months <= 60:
			return ReviewBetween12And60MonthsToServe, nil
		default:
			return ReviewMoreThan60MonthsToServe, nil
		}
	}
	return ReviewPrisonerUnSentenced, nil
}
