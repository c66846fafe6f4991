package workflow

import (
	"fmt"

	"procurement_flow_go/models"
)

// TransitionError reports a state change the lifecycle does not allow
type TransitionError struct {
	From   models.CaseState
	To     models.CaseState
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move case from %s to %s: %s", e.From, e.To, e.Reason)
}

const ReasonBackward = "backward transition"

// AssertCanTransition checks whether the case may move to target.
// A target equal to the current state is accepted; callers treat it as a no-op.
// Override lifts ordering rules (backward and out-of-table moves) but not prerequisites
// on forward moves, and not the method's track.
func AssertCanTransition(c *models.ProcurementCase, target models.CaseState, override bool) error {
	return assertTransition(c, target, override, "")
}

// AssertStageEntry is AssertCanTransition for a stage that is about to write a record of
// kind pending; that record counts toward the target's prerequisites.
func AssertStageEntry(c *models.ProcurementCase, target models.CaseState, pending models.RecordKind) error {
	return assertTransition(c, target, false, pending)
}

func assertTransition(c *models.ProcurementCase, target models.CaseState, override bool, pending models.RecordKind) error {
	from := c.CurrentState
	fail := func(reason string) error {
		return &TransitionError{From: from, To: target, Reason: reason}
	}

	if !target.IsValid() {
		return fail("unknown target state")
	}
	if target == from {
		return nil
	}
	if !Reachable(c.Method, target) {
		return fail(fmt.Sprintf("state is not part of the %s track", c.Method))
	}

	backward := Rank(target) < Rank(from)
	if !override {
		if c.IsClosed() {
			return fail("case is closed")
		}
		if backward {
			return fail(ReasonBackward)
		}
		if !IsSuccessor(c.Method, from, target) {
			return fail("not a permitted next step")
		}
	}

	if !backward {
		if reason := missingPrerequisite(c, target, pending); reason != "" {
			return fail(reason)
		}
	}
	return nil
}

// missingPrerequisite returns why the case lacks the records needed to enter target, or ""
func missingPrerequisite(c *models.ProcurementCase, target models.CaseState, pending models.RecordKind) string {
	bidding := c.Method.IsCompetitiveBidding()
	has := func(kind models.RecordKind) bool {
		return kind == pending || c.HasRecord(kind)
	}

	switch target {
	case models.StateDraft:
		return ""
	case models.StateRFQIssued:
		if !has(models.KindRFQ) {
			return "RFQ has not been issued"
		}
	case models.StateBidBulletin:
		if !has(models.KindBidBulletin) {
			return "a bid bulletin is required"
		}
	case models.StatePreBidConf:
		if !has(models.KindPreBidConf) {
			return "pre-bid conference is required"
		}
	case models.StateQuotationCollection:
		if !has(models.KindRFQ) {
			return "RFQ has not been issued"
		}
		if bidding && !has(models.KindPreBidConf) {
			return "pre-bid conference is required"
		}
	case models.StateAbstractOfQuotations:
		if bidding && !has(models.KindBid) {
			return "at least one bid is required"
		}
		if !bidding && !has(models.KindQuotation) {
			return "at least one quotation is required"
		}
	case models.StateTWGEvaluation:
		if !has(models.KindAbstractOfQuotations) {
			return "abstract of quotations is required"
		}
	case models.StatePostQualification:
		if !has(models.KindTWGEvaluation) {
			return "TWG evaluation is required"
		}
	case models.StateBACResolution:
		if !has(models.KindAbstractOfQuotations) {
			return "abstract of quotations is required"
		}
		if bidding && (c.PostQualification == nil || !c.PostQualification.Passed) {
			return "a passed post-qualification is required"
		}
	case models.StateAward:
		if !has(models.KindBACResolution) {
			return "BAC resolution is required"
		}
	case models.StateContract:
		if !has(models.KindAward) {
			return "award is required"
		}
	case models.StateNoticeToProceed:
		if !has(models.KindContract) {
			return "contract is required"
		}
	case models.StateDelivery:
		if !has(models.KindContract) {
			return "contract is required"
		}
		if c.Method == models.MethodInfrastructure && !has(models.KindNoticeToProceed) {
			return "notice to proceed is required"
		}
	case models.StateInspection:
		if !has(models.KindDelivery) {
			return "at least one delivery is required"
		}
	case models.StateAcceptance, models.StateORS:
		if c.Inspection == nil || !c.Inspection.Passed {
			return "a passed inspection is required"
		}
	case models.StateDV:
		if !has(models.KindORS) {
			return "ORS is required"
		}
	case models.StateCheck:
		if !has(models.KindDV) {
			return "DV is required"
		}
	case models.StateCheckAdvice, models.StateClosed:
		if !has(models.KindCheck) {
			return "check is required"
		}
	}
	return ""
}
