package workflow

import (
	"procurement_flow_go/models"
)

// stateRank orders states along the lifecycle. Equal ranks are lateral moves
// (bid bulletins and the pre-bid conference may alternate).
var stateRank = map[models.CaseState]int{
	models.StateDraft:                0,
	models.StateRFQIssued:            10,
	models.StateBidBulletin:          15,
	models.StatePreBidConf:           15,
	models.StateQuotationCollection:  20,
	models.StateAbstractOfQuotations: 30,
	models.StateTWGEvaluation:        35,
	models.StatePostQualification:    37,
	models.StateBACResolution:        40,
	models.StateAward:                50,
	models.StateContract:             60,
	models.StateNoticeToProceed:      70,
	models.StateDelivery:             80,
	models.StateInspection:           90,
	models.StateAcceptance:           100,
	models.StateORS:                  110,
	models.StateDV:                   120,
	models.StateCheck:                130,
	models.StateCheckAdvice:          135,
	models.StateClosed:               140,
}

// Rank returns the lifecycle position of a state, -1 for unknown states
func Rank(state models.CaseState) int {
	rank, ok := stateRank[state]
	if !ok {
		return -1
	}
	return rank
}

type stateSet map[models.CaseState]struct{}

func toSet(states ...models.CaseState) stateSet {
	set := make(stateSet, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	return set
}

// transitionTable maps each state to its permitted successors for one procurement method
type transitionTable map[models.CaseState]stateSet

// settlement is shared by every method once the contract exists
func settlement(withCheckAdvice bool) transitionTable {
	t := transitionTable{
		models.StateNoticeToProceed: toSet(models.StateDelivery),
		models.StateDelivery:        toSet(models.StateInspection),
		models.StateInspection:      toSet(models.StateAcceptance),
		models.StateAcceptance:      toSet(models.StateORS),
		models.StateORS:             toSet(models.StateDV),
		models.StateDV:              toSet(models.StateCheck),
		models.StateCheck:           toSet(models.StateClosed),
	}
	if withCheckAdvice {
		t[models.StateCheck] = toSet(models.StateCheckAdvice, models.StateClosed)
		t[models.StateCheckAdvice] = toSet(models.StateClosed)
	}
	return t
}

func smallValueTable() transitionTable {
	t := settlement(false)
	t[models.StateDraft] = toSet(models.StateRFQIssued)
	t[models.StateRFQIssued] = toSet(models.StateQuotationCollection)
	t[models.StateQuotationCollection] = toSet(models.StateAbstractOfQuotations)
	t[models.StateAbstractOfQuotations] = toSet(models.StateBACResolution)
	t[models.StateBACResolution] = toSet(models.StateAward)
	t[models.StateAward] = toSet(models.StateContract)
	t[models.StateContract] = toSet(models.StateNoticeToProceed, models.StateDelivery)
	return t
}

func biddingTable(requireNTP bool) transitionTable {
	t := settlement(true)
	t[models.StateDraft] = toSet(models.StateRFQIssued)
	t[models.StateRFQIssued] = toSet(models.StateBidBulletin, models.StatePreBidConf)
	t[models.StateBidBulletin] = toSet(models.StatePreBidConf, models.StateQuotationCollection)
	t[models.StatePreBidConf] = toSet(models.StateBidBulletin, models.StateQuotationCollection)
	t[models.StateQuotationCollection] = toSet(models.StateAbstractOfQuotations)
	t[models.StateAbstractOfQuotations] = toSet(models.StateTWGEvaluation)
	t[models.StateTWGEvaluation] = toSet(models.StatePostQualification)
	t[models.StatePostQualification] = toSet(models.StateBACResolution)
	t[models.StateBACResolution] = toSet(models.StateAward)
	t[models.StateAward] = toSet(models.StateContract)
	if requireNTP {
		t[models.StateContract] = toSet(models.StateNoticeToProceed)
	} else {
		t[models.StateContract] = toSet(models.StateNoticeToProceed, models.StateDelivery)
	}
	return t
}

var transitions = map[models.ProcurementMethod]transitionTable{
	models.MethodSmallValueRFQ:  smallValueTable(),
	models.MethodPublicBidding:  biddingTable(false),
	models.MethodInfrastructure: biddingTable(true),
}

// Successors lists the states reachable in one step from the given state, in lifecycle order
func Successors(method models.ProcurementMethod, from models.CaseState) []models.CaseState {
	table, ok := transitions[method]
	if !ok {
		return nil
	}
	next := table[from]
	var out []models.CaseState
	for _, s := range models.AllStates {
		if _, ok := next[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// IsSuccessor reports whether to is a permitted next state of from under the method
func IsSuccessor(method models.ProcurementMethod, from, to models.CaseState) bool {
	table, ok := transitions[method]
	if !ok {
		return false
	}
	_, ok = table[from][to]
	return ok
}

// Reachable reports whether the state appears anywhere on the method's track
func Reachable(method models.ProcurementMethod, state models.CaseState) bool {
	if state == models.StateDraft {
		return true
	}
	table, ok := transitions[method]
	if !ok {
		return false
	}
	for _, next := range table {
		if _, ok := next[state]; ok {
			return true
		}
	}
	return false
}
