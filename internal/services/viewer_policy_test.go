package services

import (
	"testing"

	"github.com/terraincognita07/duet/internal/fertility"
)

func TestFilterProjectionByRoleAndEntitlement(t *testing.T) {
	t.Parallel()

	projection, err := fertility.Project(fertility.Profile{
		LastPeriodDate: fertility.MustParseDate("2024-01-01"),
		CycleLength:    28,
		PeriodLength:   5,
	}, 3, fertility.DefaultParams())
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	tests := []struct {
		name        string
		role        Role
		entitlement Entitlement
		wantVisible bool
	}{
		{name: "owner free", role: RoleOwner, entitlement: EntitlementFree, wantVisible: true},
		{name: "owner premium", role: RoleOwner, entitlement: EntitlementPremium, wantVisible: true},
		{name: "partner premium", role: RolePartner, entitlement: EntitlementPremium, wantVisible: true},
		{name: "partner free", role: RolePartner, entitlement: EntitlementFree, wantVisible: false},
		{name: "unknown role", role: Role("guest"), entitlement: EntitlementPremium, wantVisible: false},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			filtered, visible := FilterProjection(projection, testCase.role, testCase.entitlement)
			if visible != testCase.wantVisible {
				t.Fatalf("expected visible=%v, got %v", testCase.wantVisible, visible)
			}
			if !visible {
				if !filtered.IsEmpty() {
					t.Fatalf("expected gated projection to be empty, got %d period days", filtered.Periods.Len())
				}
				return
			}
			if filtered.Periods.Len() != projection.Periods.Len() ||
				filtered.FertileDays.Len() != projection.FertileDays.Len() ||
				filtered.OvulationDays.Len() != projection.OvulationDays.Len() {
				t.Fatal("expected visible projection to be returned unchanged")
			}
		})
	}
}

func TestParseRoleAndEntitlement(t *testing.T) {
	t.Parallel()

	if role, ok := ParseRole(" Partner "); !ok || role != RolePartner {
		t.Fatalf("expected partner role, got %q ok=%v", role, ok)
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatal("expected unknown role to be rejected")
	}
	if ParseEntitlement("PREMIUM") != EntitlementPremium {
		t.Fatal("expected premium entitlement")
	}
	if ParseEntitlement("gold") != EntitlementFree {
		t.Fatal("expected unknown entitlement to fall back to free")
	}
}
