package services

import (
	"procurement_flow_go/models"
	"procurement_flow_go/services/workflow"
)

// StageDescriptor drives the generic stage operation for one action
type StageDescriptor struct {
	// Action is the audit action and the idempotency namespace
	Action string
	// EntryAction is logged first when recording the stage moves the case into Target
	EntryAction string
	Kind        models.RecordKind
	Target      models.CaseState
	Singleton   bool
}

// Roles returns who may record the stage
func (d StageDescriptor) Roles() []models.Role {
	return workflow.EditorRoles(d.Kind)
}

var stageDescriptors = []StageDescriptor{
	{Action: "rfq", Kind: models.KindRFQ, Target: models.StateRFQIssued, Singleton: true},
	{Action: "add_quotation", EntryAction: "start_quotation_collection", Kind: models.KindQuotation, Target: models.StateQuotationCollection},
	{Action: "bid_bulletin", Kind: models.KindBidBulletin, Target: models.StateBidBulletin},
	{Action: "pre_bid_conf", Kind: models.KindPreBidConf, Target: models.StatePreBidConf, Singleton: true},
	{Action: "add_bid", EntryAction: "start_bid_opening", Kind: models.KindBid, Target: models.StateQuotationCollection},
	{Action: "abstract_of_quotations", Kind: models.KindAbstractOfQuotations, Target: models.StateAbstractOfQuotations, Singleton: true},
	{Action: "twg_evaluation", Kind: models.KindTWGEvaluation, Target: models.StateTWGEvaluation, Singleton: true},
	{Action: "post_qualification", Kind: models.KindPostQualification, Target: models.StatePostQualification, Singleton: true},
	{Action: "bac_resolution", Kind: models.KindBACResolution, Target: models.StateBACResolution, Singleton: true},
	{Action: "award", Kind: models.KindAward, Target: models.StateAward, Singleton: true},
	{Action: "contract", Kind: models.KindContract, Target: models.StateContract, Singleton: true},
	{Action: "notice_to_proceed", Kind: models.KindNoticeToProceed, Target: models.StateNoticeToProceed, Singleton: true},
	{Action: "add_delivery", Kind: models.KindDelivery, Target: models.StateDelivery},
	{Action: "inspection", Kind: models.KindInspection, Target: models.StateInspection, Singleton: true},
	{Action: "ors", Kind: models.KindORS, Target: models.StateORS, Singleton: true},
	{Action: "dv", Kind: models.KindDV, Target: models.StateDV, Singleton: true},
	{Action: "check", Kind: models.KindCheck, Target: models.StateCheck, Singleton: true},
	{Action: "check_advice", Kind: models.KindCheckAdvice, Target: models.StateCheckAdvice, Singleton: true},
}

var stagesByAction = func() map[string]StageDescriptor {
	m := make(map[string]StageDescriptor, len(stageDescriptors))
	for _, d := range stageDescriptors {
		m[d.Action] = d
	}
	return m
}()

// LookupStage finds the descriptor for an action name
func LookupStage(action string) (StageDescriptor, bool) {
	d, ok := stagesByAction[action]
	return d, ok
}

// Stages lists every stage descriptor in lifecycle order
func Stages() []StageDescriptor {
	out := make([]StageDescriptor, len(stageDescriptors))
	copy(out, stageDescriptors)
	return out
}

// kindUsedBy reports whether a record kind belongs to the method's track
func kindUsedBy(method models.ProcurementMethod, kind models.RecordKind) bool {
	switch kind {
	case models.KindQuotation:
		return !method.IsCompetitiveBidding()
	case models.KindBid, models.KindBidBulletin, models.KindPreBidConf,
		models.KindTWGEvaluation, models.KindPostQualification, models.KindCheckAdvice:
		return method.IsCompetitiveBidding()
	}
	return true
}

// singletonOf returns the loaded singleton record of a kind, or nil
func singletonOf(c *models.ProcurementCase, kind models.RecordKind) models.StageRecord {
	switch kind {
	case models.KindRFQ:
		if c.RFQ != nil {
			return c.RFQ
		}
	case models.KindPreBidConf:
		if c.PreBidConference != nil {
			return c.PreBidConference
		}
	case models.KindAbstractOfQuotations:
		if c.AbstractOfQuotations != nil {
			return c.AbstractOfQuotations
		}
	case models.KindTWGEvaluation:
		if c.TWGEvaluation != nil {
			return c.TWGEvaluation
		}
	case models.KindPostQualification:
		if c.PostQualification != nil {
			return c.PostQualification
		}
	case models.KindBACResolution:
		if c.BACResolution != nil {
			return c.BACResolution
		}
	case models.KindAward:
		if c.Award != nil {
			return c.Award
		}
	case models.KindContract:
		if c.Contract != nil {
			return c.Contract
		}
	case models.KindNoticeToProceed:
		if c.NoticeToProceed != nil {
			return c.NoticeToProceed
		}
	case models.KindInspection:
		if c.Inspection != nil {
			return c.Inspection
		}
	case models.KindORS:
		if c.ORS != nil {
			return c.ORS
		}
	case models.KindDV:
		if c.DV != nil {
			return c.DV
		}
	case models.KindCheck:
		if c.Check != nil {
			return c.Check
		}
	case models.KindCheckAdvice:
		if c.CheckAdvice != nil {
			return c.CheckAdvice
		}
	}
	return nil
}
