package services

import (
	"strings"

	"github.com/terraincognita07/duet/internal/fertility"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RolePartner Role = "partner"
)

type Entitlement string

const (
	EntitlementFree    Entitlement = "free"
	EntitlementPremium Entitlement = "premium"
)

func ParseRole(raw string) (Role, bool) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleOwner, RolePartner:
		return role, true
	default:
		return "", false
	}
}

// ParseEntitlement treats anything but premium as free.
func ParseEntitlement(raw string) Entitlement {
	if Entitlement(strings.ToLower(strings.TrimSpace(raw))) == EntitlementPremium {
		return EntitlementPremium
	}
	return EntitlementFree
}

func CanViewFertility(role Role, entitlement Entitlement) bool {
	switch role {
	case RoleOwner:
		return true
	case RolePartner:
		return entitlement == EntitlementPremium
	default:
		return false
	}
}

// FilterProjection returns projection unchanged when the viewer may see it,
// and an empty projection with visible=false otherwise.
func FilterProjection(projection fertility.Projection, role Role, entitlement Entitlement) (fertility.Projection, bool) {
	if !CanViewFertility(role, entitlement) {
		return fertility.EmptyProjection(), false
	}
	return projection, true
}
