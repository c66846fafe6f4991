package workflow

import (
	"procurement_flow_go/models"
)

// Lock is the edit/delete lock state of a sub-record kind on a case
type Lock struct {
	Locked bool   `json:"locked"`
	Reason string `json:"reason,omitempty"`
}

// EvaluateLock derives the lock from the case's loaded relations. No I/O.
func EvaluateLock(kind models.RecordKind, c *models.ProcurementCase) Lock {
	switch kind {
	case models.KindORS:
		if c.HasRecord(models.KindDV) {
			return Lock{Locked: true, Reason: "DV already created"}
		}
	case models.KindDV:
		if c.HasRecord(models.KindCheck) {
			return Lock{Locked: true, Reason: "Check already created"}
		}
	case models.KindCheck:
		if c.IsClosed() {
			return Lock{Locked: true, Reason: "Case is closed"}
		}
	case models.KindRFQ:
		if c.HasRecord(models.KindQuotation) {
			return Lock{Locked: true, Reason: "Quotations already recorded"}
		}
	case models.KindQuotation:
		if c.HasRecord(models.KindAbstractOfQuotations) {
			return Lock{Locked: true, Reason: "Abstract of quotations already created"}
		}
	case models.KindCheckAdvice,
		models.KindBid,
		models.KindBidBulletin,
		models.KindPreBidConf,
		models.KindAbstractOfQuotations,
		models.KindTWGEvaluation,
		models.KindPostQualification,
		models.KindBACResolution,
		models.KindAward,
		models.KindContract,
		models.KindNoticeToProceed,
		models.KindDelivery,
		models.KindInspection,
		models.KindAttachment:
		// never locked
	}
	return Lock{}
}

var editorRoles = map[models.RecordKind][]models.Role{
	models.KindRFQ:                  {models.RoleBACSecretariat},
	models.KindQuotation:            {models.RoleBACSecretariat},
	models.KindBid:                  {models.RoleBACSecretariat},
	models.KindBidBulletin:          {models.RoleBACSecretariat},
	models.KindPreBidConf:           {models.RoleBACSecretariat},
	models.KindAbstractOfQuotations: {models.RoleBACSecretariat, models.RoleBACChair},
	models.KindTWGEvaluation:        {models.RoleTWGMember},
	models.KindPostQualification:    {models.RoleTWGMember, models.RoleBACSecretariat},
	models.KindBACResolution:        {models.RoleBACChair, models.RoleBACSecretariat},
	models.KindAward:                {models.RoleBACChair},
	models.KindContract:             {models.RoleSupplyOfficer},
	models.KindNoticeToProceed:      {models.RoleSupplyOfficer},
	models.KindDelivery:             {models.RoleSupplyOfficer},
	models.KindInspection:           {models.RoleInspector},
	models.KindORS:                  {models.RoleBudgetOfficer},
	models.KindDV:                   {models.RoleAccountant},
	models.KindCheck:                {models.RoleTreasurer},
	models.KindCheckAdvice:          {models.RoleTreasurer},
	models.KindAttachment:           {models.RoleBACSecretariat, models.RoleSupplyOfficer, models.RoleRequisitioner},
}

// EditorRoles returns the roles allowed to create and edit records of a kind, admin included
func EditorRoles(kind models.RecordKind) []models.Role {
	roles := []models.Role{models.RoleAdmin}
	return append(roles, editorRoles[kind]...)
}

// HasAdminOverride reports whether the role may edit locked records
func HasAdminOverride(role models.Role) bool {
	return role == models.RoleAdmin
}

// HasBasicEdit reports whether the role may edit unlocked records of a kind
func HasBasicEdit(role models.Role, kind models.RecordKind) bool {
	for _, r := range EditorRoles(kind) {
		if r == role {
			return true
		}
	}
	return false
}

// CanEdit applies the lock gate for edits
func CanEdit(role models.Role, kind models.RecordKind, c *models.ProcurementCase) bool {
	if EvaluateLock(kind, c).Locked {
		return HasAdminOverride(role)
	}
	return HasBasicEdit(role, kind)
}

// CanDelete applies the lock gate for deletes
func CanDelete(role models.Role, kind models.RecordKind, c *models.ProcurementCase) bool {
	if EvaluateLock(kind, c).Locked {
		return HasAdminOverride(role)
	}
	return HasBasicEdit(role, kind)
}

// RecordPermissions is the client-facing preview for one record kind
type RecordPermissions struct {
	Lock
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// Permissions computes the preview for every kind using the same gate the server enforces
func Permissions(role models.Role, c *models.ProcurementCase) map[models.RecordKind]RecordPermissions {
	out := make(map[models.RecordKind]RecordPermissions, len(models.AllRecordKinds))
	for _, kind := range models.AllRecordKinds {
		out[kind] = RecordPermissions{
			Lock:      EvaluateLock(kind, c),
			CanEdit:   CanEdit(role, kind, c),
			CanDelete: CanDelete(role, kind, c),
		}
	}
	return out
}
