package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"procurement_flow_go/models"
	"procurement_flow_go/services/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// transitionLogCount counts log entries recording the given from/to pair
func transitionLogCount(logs []models.ActivityLog, from, to models.CaseState) int {
	n := 0
	for _, l := range logs {
		if l.FromState != nil && l.ToState != nil && *l.FromState == from && *l.ToState == to {
			n++
		}
	}
	return n
}

func (e *testEnv) state(t *testing.T, caseID string) models.CaseState {
	t.Helper()
	var c models.ProcurementCase
	require.NoError(t, e.db.First(&c, "id = ?", caseID).Error)
	return c.CurrentState
}

// stageStep applies a stage and checks the state landed on target with exactly one matching log entry
func (e *testEnv) stageStep(t *testing.T, actor *Actor, caseID, action, body string, target models.CaseState) *StageResult {
	t.Helper()
	from := e.state(t, caseID)
	res := e.apply(t, actor, caseID, action, body)
	require.Equal(t, target, res.Case.CurrentState)
	require.Equal(t, target, e.state(t, caseID))
	if from != target {
		assert.Equal(t, 1, transitionLogCount(e.logs(t, caseID), from, target), "%s: %s -> %s", action, from, target)
	}
	return res
}

func (e *testEnv) transitionStep(t *testing.T, caseID string, target models.CaseState) {
	t.Helper()
	from := e.state(t, caseID)
	res, err := e.svc.Transition(context.Background(), e.bac, caseID, TransitionRequest{TargetState: target, LegalBasis: "IRR Sec. 37"})
	require.NoError(t, err)
	require.True(t, res.Changed)
	assert.Equal(t, 1, transitionLogCount(e.logs(t, caseID), from, target))
}

// toContract walks a small-value case to CONTRACT
func (e *testEnv) toContract(t *testing.T) *models.ProcurementCase {
	c := e.newCase(t, models.MethodSmallValueRFQ)
	chair := e.actor(t, models.RoleBACChair)
	supply := e.actor(t, models.RoleSupplyOfficer)

	e.stageStep(t, e.bac, c.ID, "rfq", `{"reference_no":"RFQ-2026-001","approved_budget":"150000.00","issued_at":"2026-03-02T09:00:00Z"}`, models.StateRFQIssued)
	e.stageStep(t, e.bac, c.ID, "add_quotation", `{"supplier_name":"Acme","amount":5000}`, models.StateQuotationCollection)
	e.stageStep(t, e.bac, c.ID, "abstract_of_quotations", `{"lowest_bidder":"Acme","lowest_amount":5000}`, models.StateAbstractOfQuotations)
	e.stageStep(t, e.bac, c.ID, "bac_resolution", `{"resolution_no":"BAC-2026-014"}`, models.StateBACResolution)
	e.stageStep(t, chair, c.ID, "award", `{"supplier_name":"Acme","amount":5000}`, models.StateAward)
	e.stageStep(t, supply, c.ID, "contract", `{"contract_no":"PO-2026-044","amount":5000}`, models.StateContract)
	return c
}

// toDV continues from CONTRACT through settlement up to DV
func (e *testEnv) toDV(t *testing.T) *models.ProcurementCase {
	c := e.toContract(t)
	supply := e.actor(t, models.RoleSupplyOfficer)
	inspector := e.actor(t, models.RoleInspector)
	budget := e.actor(t, models.RoleBudgetOfficer)
	accountant := e.actor(t, models.RoleAccountant)

	e.stageStep(t, supply, c.ID, "add_delivery", `{"delivered_at":"2026-03-20T10:00:00Z","receipt_no":"DR-88","quantity":"10"}`, models.StateDelivery)
	e.stageStep(t, inspector, c.ID, "inspection", `{"inspector_name":"J. Cruz","passed":true}`, models.StateInspection)
	e.transitionStep(t, c.ID, models.StateAcceptance)
	e.stageStep(t, budget, c.ID, "ors", `{"ors_no":"ORS-0101","amount":5000,"fund_cluster":"01"}`, models.StateORS)
	e.stageStep(t, accountant, c.ID, "dv", `{"dv_no":"DV-0202","gross_amount":5000,"withholding":"50"}`, models.StateDV)
	return c
}

func TestSmallValueQuotationScenario(t *testing.T) {
	e := newTestEnv(t)
	c := e.newCase(t, models.MethodSmallValueRFQ)
	e.stageStep(t, e.bac, c.ID, "rfq", `{"reference_no":"RFQ-1","approved_budget":20000}`, models.StateRFQIssued)
	before := len(e.logs(t, c.ID))

	res := e.apply(t, e.bac, c.ID, "add_quotation", `{"supplier_name":"Acme","amount":5000}`)

	assert.True(t, res.Changed)
	assert.Equal(t, models.StateQuotationCollection, e.state(t, c.ID))

	var quotations []models.Quotation
	e.db.Where("case_id = ?", c.ID).Find(&quotations)
	require.Len(t, quotations, 1)
	assert.Equal(t, "Acme", quotations[0].SupplierName)
	assert.Equal(t, "5000", quotations[0].Amount.String())

	logs := e.logs(t, c.ID)[before:]
	require.Len(t, logs, 2)
	assert.Equal(t, "start_quotation_collection", logs[0].Action)
	assert.Equal(t, models.StateRFQIssued, *logs[0].FromState)
	assert.Equal(t, models.StateQuotationCollection, *logs[0].ToState)
	assert.Equal(t, "add_quotation", logs[1].Action)
	assert.Nil(t, logs[1].FromState)
	assert.Equal(t, 1, transitionLogCount(e.logs(t, c.ID), models.StateRFQIssued, models.StateQuotationCollection))

	t.Run("Second quotation adds a record without a transition", func(t *testing.T) {
		res := e.apply(t, e.bac, c.ID, "add_quotation", `{"supplier_name":"Beta Trading","amount":"5200.50"}`)
		assert.False(t, res.Changed)
		assert.Len(t, res.LogIDs, 1)

		var count int64
		e.db.Model(&models.Quotation{}).Where("case_id = ?", c.ID).Count(&count)
		assert.Equal(t, int64(2), count)
		assert.Equal(t, 1, transitionLogCount(e.logs(t, c.ID), models.StateRFQIssued, models.StateQuotationCollection))
	})
}

func TestCheckAdviceBeforeEligibleState(t *testing.T) {
	e := newTestEnv(t)
	treasurer := e.actor(t, models.RoleTreasurer)

	t.Run("Bidding case not yet at check", func(t *testing.T) {
		c := e.newCase(t, models.MethodPublicBidding)
		e.stageStep(t, e.bac, c.ID, "rfq", `{"reference_no":"ITB-1","approved_budget":2500000}`, models.StateRFQIssued)

		_, err := e.svc.ApplyStage(context.Background(), treasurer, c.ID, "check_advice", []byte(`{"advice_no":"ADA-1"}`))
		var te *workflow.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, models.StateRFQIssued, e.state(t, c.ID))

		var count int64
		e.db.Model(&models.CheckAdvice{}).Where("case_id = ?", c.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("Small-value cases never use check advice", func(t *testing.T) {
		c := e.newCase(t, models.MethodSmallValueRFQ)
		_, err := e.svc.ApplyStage(context.Background(), treasurer, c.ID, "check_advice", []byte(`{"advice_no":"ADA-2"}`))
		var te *workflow.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Contains(t, te.Reason, "not used by")
	})
}

func TestTransitionToCurrentStateIsNoOp(t *testing.T) {
	e := newTestEnv(t)
	c := e.newCase(t, models.MethodSmallValueRFQ)
	e.stageStep(t, e.bac, c.ID, "rfq", `{"reference_no":"RFQ-1","approved_budget":1000}`, models.StateRFQIssued)
	before := e.logs(t, c.ID)

	for i := 0; i < 2; i++ {
		res, err := e.svc.Transition(context.Background(), e.bac, c.ID, TransitionRequest{TargetState: models.StateRFQIssued})
		require.NoError(t, err)
		assert.False(t, res.Changed)
	}

	after := e.logs(t, c.ID)
	assert.Len(t, after, len(before))
	assert.Zero(t, transitionLogCount(after, models.StateRFQIssued, models.StateRFQIssued))
}

func TestBackwardTransition(t *testing.T) {
	e := newTestEnv(t)
	c := e.toContract(t)

	t.Run("Rejected without override", func(t *testing.T) {
		_, err := e.svc.Transition(context.Background(), e.bac, c.ID, TransitionRequest{TargetState: models.StateRFQIssued})
		var te *workflow.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, workflow.ReasonBackward, te.Reason)
		assert.Equal(t, models.StateContract, e.state(t, c.ID))
	})

	t.Run("Override is admin only", func(t *testing.T) {
		_, err := e.svc.Transition(context.Background(), e.bac, c.ID, TransitionRequest{TargetState: models.StateRFQIssued, Override: true})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, models.StateContract, e.state(t, c.ID))
	})

	t.Run("Admin override is logged", func(t *testing.T) {
		res, err := e.svc.Transition(context.Background(), e.admin, c.ID, TransitionRequest{
			TargetState: models.StateRFQIssued,
			LegalBasis:  "COA directive",
			Override:    true,
		})
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, models.StateRFQIssued, e.state(t, c.ID))

		var entry models.ActivityLog
		require.NoError(t, e.db.First(&entry, res.LogID).Error)
		assert.True(t, entry.IsOverride)
		assert.Equal(t, "transition", entry.Action)
		assert.Equal(t, "COA directive", entry.LegalBasis)
		assert.Equal(t, string(models.RoleAdmin), entry.ActorRole)
	})
}

func TestLockEnforcementOnORS(t *testing.T) {
	e := newTestEnv(t)
	c := e.toDV(t)
	budget := e.actor(t, models.RoleBudgetOfficer)

	var ors models.ORS
	require.NoError(t, e.db.Where("case_id = ?", c.ID).First(&ors).Error)
	body := []byte(`{"fund_cluster":"02","reason":"wrong fund cluster"}`)

	t.Run("Non-admin is locked out", func(t *testing.T) {
		_, err := e.svc.UpdateRecord(context.Background(), budget, c.ID, models.KindORS, ors.ID, body)
		var le *LockedError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, "DV already created", le.Reason)

		var reloaded models.ORS
		e.db.First(&reloaded, "id = ?", ors.ID)
		assert.Equal(t, "01", reloaded.FundCluster)
	})

	t.Run("Lock wins over the role check", func(t *testing.T) {
		accountant := e.actor(t, models.RoleAccountant)
		_, err := e.svc.UpdateRecord(context.Background(), accountant, c.ID, models.KindORS, ors.ID, body)
		var le *LockedError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, models.KindORS, le.Kind)

		err = e.svc.DeleteRecord(context.Background(), accountant, c.ID, models.KindORS, ors.ID, "duplicate")
		assert.True(t, errors.As(err, &le))
	})

	t.Run("Unlocked record still checks the role", func(t *testing.T) {
		var dv models.DV
		require.NoError(t, e.db.Where("case_id = ?", c.ID).First(&dv).Error)
		_, err := e.svc.UpdateRecord(context.Background(), budget, c.ID, models.KindDV, dv.ID, []byte(`{"dv_no":"DV-9","reason":"typo"}`))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Re-recording the stage hits the same gate", func(t *testing.T) {
		_, err := e.svc.ApplyStage(context.Background(), budget, c.ID, "ors", []byte(`{"fund_cluster":"03","reason":"wrong fund cluster"}`))
		var le *LockedError
		assert.True(t, errors.As(err, &le))
	})

	t.Run("Admin edit succeeds with override flag", func(t *testing.T) {
		rec, err := e.svc.UpdateRecord(context.Background(), e.admin, c.ID, models.KindORS, ors.ID, body)
		require.NoError(t, err)
		assert.Equal(t, "02", rec.(*models.ORS).FundCluster)

		logs := e.logs(t, c.ID)
		last := logs[len(logs)-1]
		assert.Equal(t, "update_ors", last.Action)
		assert.Equal(t, models.ChangeTypeUpdate, last.ChangeType)
		assert.True(t, last.IsOverride)

		changes := last.Changes()
		require.NotEmpty(t, changes)
		found := false
		for _, ch := range changes {
			if ch.Field == "fund_cluster" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("Reason is required", func(t *testing.T) {
		_, err := e.svc.UpdateRecord(context.Background(), e.admin, c.ID, models.KindORS, ors.ID, []byte(`{"fund_cluster":"04"}`))
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Fields, "reason")
	})

	t.Run("Permissions preview mirrors the gate", func(t *testing.T) {
		perms, err := e.svc.Permissions(context.Background(), budget, c.ID)
		require.NoError(t, err)
		assert.True(t, perms[models.KindORS].Locked)
		assert.False(t, perms[models.KindORS].CanEdit)

		perms, err = e.svc.Permissions(context.Background(), e.admin, c.ID)
		require.NoError(t, err)
		assert.True(t, perms[models.KindORS].CanEdit)
	})
}

func TestFullSmallValueLifecycle(t *testing.T) {
	e := newTestEnv(t)
	c := e.toDV(t)
	treasurer := e.actor(t, models.RoleTreasurer)

	e.stageStep(t, treasurer, c.ID, "check", `{"check_no":"000123","bank":"LBP","amount":4950}`, models.StateCheck)
	e.transitionStep(t, c.ID, models.StateClosed)

	_, err := e.svc.Transition(context.Background(), e.bac, c.ID, TransitionRequest{TargetState: models.StateCheck})
	var te *workflow.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "case is closed", te.Reason)

	var check models.Check
	require.NoError(t, e.db.Where("case_id = ?", c.ID).First(&check).Error)
	_, err = e.svc.UpdateRecord(context.Background(), treasurer, c.ID, models.KindCheck, check.ID, []byte(`{"bank":"DBP","reason":"typo"}`))
	var le *LockedError
	assert.True(t, errors.As(err, &le))
}

func TestInfrastructureRequiresNoticeToProceed(t *testing.T) {
	e := newTestEnv(t)
	c := e.newCase(t, models.MethodInfrastructure)
	chair := e.actor(t, models.RoleBACChair)
	twg := e.actor(t, models.RoleTWGMember)
	supply := e.actor(t, models.RoleSupplyOfficer)

	e.stageStep(t, e.bac, c.ID, "rfq", `{"reference_no":"ITB-9","approved_budget":9000000}`, models.StateRFQIssued)
	e.stageStep(t, e.bac, c.ID, "pre_bid_conf", `{"scheduled_at":"2026-03-09T09:00:00Z","venue":"BAC Room"}`, models.StatePreBidConf)
	e.stageStep(t, e.bac, c.ID, "bid_bulletin", `{"bulletin_no":"SBB-1","subject":"Revised BOQ"}`, models.StateBidBulletin)
	e.stageStep(t, e.bac, c.ID, "add_bid", `{"bidder_name":"Builders Inc","amount":8500000}`, models.StateQuotationCollection)
	e.stageStep(t, e.bac, c.ID, "abstract_of_quotations", `{"lowest_bidder":"Builders Inc","lowest_amount":8500000}`, models.StateAbstractOfQuotations)
	e.stageStep(t, twg, c.ID, "twg_evaluation", `{"recommended_bidder":"Builders Inc"}`, models.StateTWGEvaluation)

	t.Run("Failed post-qualification blocks the resolution", func(t *testing.T) {
		e.stageStep(t, twg, c.ID, "post_qualification", `{"bidder_name":"Builders Inc","passed":false}`, models.StatePostQualification)
		_, err := e.svc.ApplyStage(context.Background(), chair, c.ID, "bac_resolution", []byte(`{"resolution_no":"R-1"}`))
		var te *workflow.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "a passed post-qualification is required", te.Reason)

		res := e.apply(t, twg, c.ID, "post_qualification", `{"passed":true,"reason":"documents re-submitted"}`)
		assert.True(t, res.Updated)
	})

	e.stageStep(t, chair, c.ID, "bac_resolution", `{"resolution_no":"R-1"}`, models.StateBACResolution)
	e.stageStep(t, chair, c.ID, "award", `{"supplier_name":"Builders Inc","amount":8500000}`, models.StateAward)
	e.stageStep(t, supply, c.ID, "contract", `{"contract_no":"C-77","amount":8500000}`, models.StateContract)

	_, err := e.svc.ApplyStage(context.Background(), supply, c.ID, "add_delivery", []byte(`{"delivered_at":"2026-05-01T00:00:00Z"}`))
	var te *workflow.TransitionError
	require.True(t, errors.As(err, &te))

	e.stageStep(t, supply, c.ID, "notice_to_proceed", `{"issued_at":"2026-04-01T00:00:00Z"}`, models.StateNoticeToProceed)
	e.stageStep(t, supply, c.ID, "add_delivery", `{"delivered_at":"2026-05-01T00:00:00Z"}`, models.StateDelivery)
}

func TestSingletonStageEditsInPlace(t *testing.T) {
	e := newTestEnv(t)
	c := e.newCase(t, models.MethodSmallValueRFQ)
	first := e.stageStep(t, e.bac, c.ID, "rfq", `{"reference_no":"RFQ-1","approved_budget":1000}`, models.StateRFQIssued)
	version := first.Case.Version

	t.Run("Reason required", func(t *testing.T) {
		_, err := e.svc.ApplyStage(context.Background(), e.bac, c.ID, "rfq", []byte(`{"approved_budget":"1250.75"}`))
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Fields, "reason")

		var rfq models.RFQ
		require.NoError(t, e.db.Where("case_id = ?", c.ID).First(&rfq).Error)
		assert.Equal(t, "1000.00", rfq.ApprovedBudget.StringFixed(2))
	})

	res := e.apply(t, e.bac, c.ID, "rfq", `{"approved_budget":"1250.75","reason":"ABC revised"}`)
	assert.True(t, res.Updated)
	assert.False(t, res.Changed)
	assert.Equal(t, version, res.Case.Version)

	var rfqs []models.RFQ
	e.db.Where("case_id = ?", c.ID).Find(&rfqs)
	require.Len(t, rfqs, 1)
	assert.Equal(t, "RFQ-1", rfqs[0].ReferenceNo)
	assert.Equal(t, "1250.75", rfqs[0].ApprovedBudget.StringFixed(2))

	logs := e.logs(t, c.ID)
	last := logs[len(logs)-1]
	assert.Equal(t, "rfq", last.Action)
	assert.Equal(t, models.ChangeTypeUpdate, last.ChangeType)
	assert.NotEmpty(t, last.Before)
	assert.False(t, last.IsOverride)
	assert.Contains(t, string(last.Payload), "ABC revised")
}

func TestApplyStageGuards(t *testing.T) {
	e := newTestEnv(t)
	c := e.newCase(t, models.MethodSmallValueRFQ)
	ctx := context.Background()

	t.Run("Unknown action", func(t *testing.T) {
		_, err := e.svc.ApplyStage(ctx, e.bac, c.ID, "launch_rocket", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Missing identity", func(t *testing.T) {
		_, err := e.svc.ApplyStage(ctx, nil, c.ID, "rfq", []byte(`{}`))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("Wrong role", func(t *testing.T) {
		viewer := e.actor(t, models.RoleViewer)
		_, err := e.svc.ApplyStage(ctx, viewer, c.ID, "rfq", []byte(`{"reference_no":"X","approved_budget":1}`))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Unknown case", func(t *testing.T) {
		_, err := e.svc.ApplyStage(ctx, e.bac, "00000000-0000-0000-0000-000000000000", "rfq", []byte(`{"reference_no":"X","approved_budget":1}`))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Field validation leaves no side effects", func(t *testing.T) {
		_, err := e.svc.ApplyStage(ctx, e.bac, c.ID, "rfq", []byte(`{"approved_budget":0}`))
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Fields, "reference_no")
		assert.Contains(t, ve.Fields, "approved_budget")
		assert.Equal(t, models.StateDraft, e.state(t, c.ID))

		var count int64
		e.db.Model(&models.RFQ{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		_, err := e.svc.ApplyStage(ctx, e.bac, c.ID, "rfq", []byte(`[1,2]`))
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("Wrong field type", func(t *testing.T) {
		_, err := e.svc.ApplyStage(ctx, e.bac, c.ID, "rfq", []byte(`{"reference_no":42,"approved_budget":1}`))
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("Stale version is a conflict", func(t *testing.T) {
		_, err := e.svc.ApplyStage(ctx, e.bac, c.ID, "rfq", []byte(`{"reference_no":"X","approved_budget":1,"expected_version":7}`))
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("Prerequisite is enforced", func(t *testing.T) {
		_, err := e.svc.ApplyStage(ctx, e.bac, c.ID, "add_quotation", []byte(`{"supplier_name":"Acme","amount":1}`))
		var te *workflow.TransitionError
		assert.True(t, errors.As(err, &te))
	})

	t.Run("Free text is sanitised", func(t *testing.T) {
		res := e.apply(t, e.bac, c.ID, "rfq", `{"reference_no":"RFQ-<b>7</b>","approved_budget":10,"notes":"<script>alert(1)</script>ok"}`)
		rfq := res.Record.(*models.RFQ)
		assert.Equal(t, "RFQ-7", rfq.ReferenceNo)
		assert.Equal(t, "ok", rfq.Notes)
	})
}

func TestAuditFailureDoesNotRollBackTransition(t *testing.T) {
	e := newTestEnv(t)
	c := e.newCase(t, models.MethodSmallValueRFQ)

	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register("test:fail_activity", func(tx *gorm.DB) {
		if tx.Statement.Table == "activity_logs" {
			tx.AddError(errors.New("audit store unavailable"))
		}
	}))

	res, err := e.svc.ApplyStage(context.Background(), e.bac, c.ID, "rfq", []byte(`{"reference_no":"RFQ-1","approved_budget":1000}`))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Empty(t, res.LogIDs)
	assert.Equal(t, models.StateRFQIssued, e.state(t, c.ID))

	var count int64
	e.db.Model(&models.RFQ{}).Where("case_id = ?", c.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestStageSchedulesReminders(t *testing.T) {
	e := newTestEnv(t)
	c := e.newCase(t, models.MethodSmallValueRFQ)
	deadline := e.clock.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)

	e.apply(t, e.bac, c.ID, "rfq", fmt.Sprintf(`{"reference_no":"RFQ-1","approved_budget":1000,"submission_deadline":%q}`, deadline))

	pending, err := e.svc.reminders.PendingForCase(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ReminderBidOpening, pending[0].Type)
	assert.Equal(t, e.bac.Email, pending[0].Recipient)

	t.Run("Moving the deadline reschedules", func(t *testing.T) {
		later := e.clock.Now().Add(96 * time.Hour).UTC()
		e.apply(t, e.bac, c.ID, "rfq", fmt.Sprintf(`{"submission_deadline":%q,"reason":"deadline extended"}`, later.Format(time.RFC3339)))

		pending, err := e.svc.reminders.PendingForCase(context.Background(), c.ID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.True(t, pending[0].DueAt.Equal(later))
	})

	t.Run("Past dates are not scheduled", func(t *testing.T) {
		other := e.newCase(t, models.MethodSmallValueRFQ)
		past := e.clock.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
		e.apply(t, e.bac, other.ID, "rfq", fmt.Sprintf(`{"reference_no":"RFQ-2","approved_budget":1000,"submission_deadline":%q}`, past))

		pending, _ := e.svc.reminders.PendingForCase(context.Background(), other.ID)
		assert.Empty(t, pending)
	})
}

func TestDeleteRecord(t *testing.T) {
	e := newTestEnv(t)
	c := e.newCase(t, models.MethodSmallValueRFQ)
	e.apply(t, e.bac, c.ID, "rfq", `{"reference_no":"RFQ-1","approved_budget":1000}`)
	res := e.apply(t, e.bac, c.ID, "add_quotation", `{"supplier_name":"Acme","amount":900}`)
	ctx := context.Background()

	t.Run("Reason is required", func(t *testing.T) {
		err := e.svc.DeleteRecord(ctx, e.bac, c.ID, models.KindQuotation, res.Record.GetID(), " ")
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("RFQ is locked by quotations", func(t *testing.T) {
		var rfq models.RFQ
		e.db.Where("case_id = ?", c.ID).First(&rfq)
		err := e.svc.DeleteRecord(ctx, e.bac, c.ID, models.KindRFQ, rfq.ID, "duplicate")
		var le *LockedError
		assert.True(t, errors.As(err, &le))
	})

	t.Run("Unlocked delete keeps the state", func(t *testing.T) {
		require.NoError(t, e.svc.DeleteRecord(ctx, e.bac, c.ID, models.KindQuotation, res.Record.GetID(), "entered twice"))
		assert.Equal(t, models.StateQuotationCollection, e.state(t, c.ID))

		logs := e.logs(t, c.ID)
		last := logs[len(logs)-1]
		assert.Equal(t, "delete_quotation", last.Action)
		assert.Equal(t, models.ChangeTypeDelete, last.ChangeType)
		assert.NotEmpty(t, last.Before)
	})

	t.Run("Missing record", func(t *testing.T) {
		err := e.svc.DeleteRecord(ctx, e.bac, c.ID, models.KindQuotation, res.Record.GetID(), "again")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestParseRecordKind(t *testing.T) {
	kind, ok := ParseRecordKind("ORS")
	assert.True(t, ok)
	assert.Equal(t, models.KindORS, kind)

	_, ok = ParseRecordKind("purchase_request")
	assert.False(t, ok)
}

func TestBiddingCannotSkipBulletinAndPreBid(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	c := e.newCase(t, models.MethodPublicBidding)
	e.stageStep(t, e.bac, c.ID, "rfq", `{"reference_no":"ITB-12","approved_budget":2500000}`, models.StateRFQIssued)

	t.Run("Transition into bulletin without a bulletin", func(t *testing.T) {
		_, err := e.svc.Transition(ctx, e.bac, c.ID, TransitionRequest{TargetState: models.StateBidBulletin})
		var te *workflow.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "a bid bulletin is required", te.Reason)
		assert.Equal(t, models.StateRFQIssued, e.state(t, c.ID))
	})

	t.Run("Bids wait for the pre-bid conference", func(t *testing.T) {
		e.stageStep(t, e.bac, c.ID, "bid_bulletin", `{"bulletin_no":"SBB-1","subject":"Clarified specs"}`, models.StateBidBulletin)

		_, err := e.svc.ApplyStage(ctx, e.bac, c.ID, "add_bid", []byte(`{"bidder_name":"Acme","amount":2400000}`))
		var te *workflow.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "pre-bid conference is required", te.Reason)

		var bids int64
		e.db.Model(&models.Bid{}).Where("case_id = ?", c.ID).Count(&bids)
		assert.Zero(t, bids)

		_, err = e.svc.Transition(ctx, e.bac, c.ID, TransitionRequest{TargetState: models.StateQuotationCollection})
		require.True(t, errors.As(err, &te))
		assert.Equal(t, models.StateBidBulletin, e.state(t, c.ID))
	})

	t.Run("Opens once both are recorded", func(t *testing.T) {
		e.stageStep(t, e.bac, c.ID, "pre_bid_conf", `{"scheduled_at":"2026-03-09T09:00:00Z","venue":"BAC Room"}`, models.StatePreBidConf)
		e.stageStep(t, e.bac, c.ID, "add_bid", `{"bidder_name":"Acme","amount":2400000}`, models.StateQuotationCollection)
	})
}

func TestCheckMustMatchDVNetAmount(t *testing.T) {
	e := newTestEnv(t)
	c := e.toDV(t)
	treasurer := e.actor(t, models.RoleTreasurer)

	_, err := e.svc.ApplyStage(context.Background(), treasurer, c.ID, "check", []byte(`{"check_no":"000124","amount":5000}`))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "must equal the DV net amount of 4950.00", ve.Fields["amount"])
	assert.Equal(t, models.StateDV, e.state(t, c.ID))

	e.stageStep(t, treasurer, c.ID, "check", `{"check_no":"000124","amount":"4950.00"}`, models.StateCheck)
}
