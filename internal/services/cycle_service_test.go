package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestSaveAndGetCycle(t *testing.T) {
	fixture := newCycleServiceFixture("2026-03-01")
	ctx := context.Background()

	if _, err := fixture.service.GetCycle(ctx, "owner-1"); !errors.Is(err, ErrCycleNotConfigured) {
		t.Fatalf("expected ErrCycleNotConfigured before save, got %v", err)
	}

	saved, err := fixture.service.SaveCycle(ctx, "owner-1", CycleInput{LastPeriodDate: "2026-02-10", CycleLength: 29, PeriodLength: 6})
	if err != nil {
		t.Fatalf("save cycle: %v", err)
	}
	if saved.Revision != 1 {
		t.Fatalf("expected first revision 1, got %d", saved.Revision)
	}

	loaded, err := fixture.service.GetCycle(ctx, "owner-1")
	if err != nil {
		t.Fatalf("get cycle: %v", err)
	}
	if loaded.LastPeriodDate.String() != "2026-02-10" || loaded.CycleLength != 29 || loaded.PeriodLength != 6 {
		t.Fatalf("unexpected stored profile %#v", loaded)
	}
}

func TestSaveCycleRejectsInvalidInputWithoutWriting(t *testing.T) {
	fixture := newCycleServiceFixture("2026-03-01")

	_, err := fixture.service.SaveCycle(context.Background(), "owner-1", CycleInput{LastPeriodDate: "2026-02-10", CycleLength: 36, PeriodLength: 5})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "cycle_length" {
		t.Fatalf("expected cycle_length validation error, got %v", err)
	}
	if fixture.profiles.saves != 0 {
		t.Fatalf("expected no write for invalid input, got %d", fixture.profiles.saves)
	}

	if _, err := fixture.service.SaveCycle(context.Background(), "  ", CycleInput{LastPeriodDate: "2026-02-10", CycleLength: 28, PeriodLength: 5}); !errors.Is(err, ErrOwnerIDRequired) {
		t.Fatalf("expected ErrOwnerIDRequired, got %v", err)
	}
}

func TestSaveCycleOverwritesAndBumpsVersion(t *testing.T) {
	fixture := newCycleServiceFixture("2026-03-01")
	ctx := context.Background()

	if _, err := fixture.service.SaveCycle(ctx, "owner-1", CycleInput{LastPeriodDate: "2026-01-10", CycleLength: 28, PeriodLength: 5}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := fixture.service.SaveCycle(ctx, "owner-1", CycleInput{LastPeriodDate: "2026-02-09", CycleLength: 30, PeriodLength: 4})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.Revision != 2 || second.CycleLength != 30 || second.PeriodLength != 4 {
		t.Fatalf("expected full overwrite at revision 2, got %#v", second)
	}

	projection, err := fixture.service.GetFertility(ctx, FertilityRequest{OwnerID: "owner-1", Role: RoleOwner})
	if err != nil {
		t.Fatalf("get fertility: %v", err)
	}
	if projection.Version != 2 {
		t.Fatalf("expected projection version 2, got %d", projection.Version)
	}
	if !projection.Periods.Has(mustDate("2026-02-09")) || projection.Periods.Has(mustDate("2026-01-10")) {
		t.Fatalf("expected projection from the overwritten profile, got %v", projection.Periods.Strings())
	}
}

func TestSaveCycleTwiceWithSameValuesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	input := CycleInput{LastPeriodDate: "2026-02-10", CycleLength: 28, PeriodLength: 5}

	once := newCycleServiceFixture("2026-03-01")
	if _, err := once.service.SaveCycle(ctx, "owner-1", input); err != nil {
		t.Fatalf("save once: %v", err)
	}
	twice := newCycleServiceFixture("2026-03-01")
	for i := 0; i < 2; i++ {
		if _, err := twice.service.SaveCycle(ctx, "owner-1", input); err != nil {
			t.Fatalf("save twice: %v", err)
		}
	}

	request := FertilityRequest{OwnerID: "owner-1", Role: RoleOwner}
	first, err := once.service.GetFertility(ctx, request)
	if err != nil {
		t.Fatalf("fertility after one save: %v", err)
	}
	second, err := twice.service.GetFertility(ctx, request)
	if err != nil {
		t.Fatalf("fertility after two saves: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, once=%+v twice=%+v", first, second)
	}
}

func TestSaveCycleConcurrentWritesKeepOneProfile(t *testing.T) {
	fixture := newCycleServiceFixture("2026-03-01")
	ctx := context.Background()

	var wg sync.WaitGroup
	for day := 1; day <= 20; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			input := CycleInput{LastPeriodDate: fmt.Sprintf("2026-02-%02d", day), CycleLength: 28, PeriodLength: 5}
			if _, err := fixture.service.SaveCycle(ctx, "owner-1", input); err != nil {
				t.Errorf("save %d: %v", day, err)
			}
		}(day)
	}
	wg.Wait()

	loaded, err := fixture.service.GetCycle(ctx, "owner-1")
	if err != nil {
		t.Fatalf("get cycle: %v", err)
	}
	if loaded.Revision != 20 {
		t.Fatalf("expected 20 serialized revisions, got %d", loaded.Revision)
	}
}

func TestGetFertilityGatesByRoleAndEntitlement(t *testing.T) {
	fixture := newCycleServiceFixture("2026-03-01")
	ctx := context.Background()
	if _, err := fixture.service.SaveCycle(ctx, "owner-1", CycleInput{LastPeriodDate: "2026-02-10", CycleLength: 28, PeriodLength: 5}); err != nil {
		t.Fatalf("save cycle: %v", err)
	}

	tests := []struct {
		name        string
		request     FertilityRequest
		wantVisible bool
	}{
		{name: "owner", request: FertilityRequest{OwnerID: "owner-1", ViewerID: "owner-1", Role: RoleOwner, Entitlement: EntitlementFree}, wantVisible: true},
		{name: "partner premium by code", request: FertilityRequest{CoupleCode: "duet-abcd-efgh", ViewerID: "partner-1", Role: RolePartner, Entitlement: EntitlementPremium}, wantVisible: true},
		{name: "partner free by code", request: FertilityRequest{CoupleCode: "DUET-ABCD-EFGH", ViewerID: "partner-1", Role: RolePartner, Entitlement: EntitlementFree}, wantVisible: false},
		{name: "partner premium by membership", request: FertilityRequest{ViewerID: "partner-1", Role: RolePartner, Entitlement: EntitlementPremium}, wantVisible: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			projection, err := fixture.service.GetFertility(ctx, testCase.request)
			if err != nil {
				t.Fatalf("get fertility: %v", err)
			}
			if projection.Visible != testCase.wantVisible || projection.Gated == testCase.wantVisible {
				t.Fatalf("expected visible=%v, got visible=%v gated=%v", testCase.wantVisible, projection.Visible, projection.Gated)
			}
			if projection.Version != 1 {
				t.Fatalf("expected version 1, got %d", projection.Version)
			}
			if testCase.wantVisible && !projection.OvulationDays.Has(mustDate("2026-02-24")) {
				t.Fatalf("expected ovulation on 2026-02-24, got %v", projection.OvulationDays.Strings())
			}
			if !testCase.wantVisible && !projection.IsEmpty() {
				t.Fatal("expected gated projection to carry no dates")
			}
		})
	}
}

func TestGetFertilityRejectsStrangersAndUnknownCodes(t *testing.T) {
	fixture := newCycleServiceFixture("2026-03-01")
	ctx := context.Background()
	if _, err := fixture.service.SaveCycle(ctx, "owner-1", CycleInput{LastPeriodDate: "2026-02-10", CycleLength: 28, PeriodLength: 5}); err != nil {
		t.Fatalf("save cycle: %v", err)
	}

	_, err := fixture.service.GetFertility(ctx, FertilityRequest{CoupleCode: "DUET-ABCD-EFGH", ViewerID: "stranger", Role: RolePartner, Entitlement: EntitlementPremium})
	if !errors.Is(err, ErrCoupleAccessDenied) {
		t.Fatalf("expected ErrCoupleAccessDenied, got %v", err)
	}
	_, err = fixture.service.GetFertility(ctx, FertilityRequest{CoupleCode: "DUET-ZZZZ-ZZZZ", ViewerID: "partner-1", Role: RolePartner, Entitlement: EntitlementPremium})
	if !errors.Is(err, ErrCoupleNotFound) {
		t.Fatalf("expected ErrCoupleNotFound, got %v", err)
	}
	_, err = fixture.service.GetFertility(ctx, FertilityRequest{OwnerID: "owner-1", ViewerID: "partner-1", Role: RoleOwner})
	if !errors.Is(err, ErrCoupleAccessDenied) {
		t.Fatalf("expected reading another owner's profile to be denied, got %v", err)
	}
	_, err = fixture.service.GetFertility(ctx, FertilityRequest{OwnerID: "owner-2", Role: RoleOwner})
	if !errors.Is(err, ErrCycleNotConfigured) {
		t.Fatalf("expected ErrCycleNotConfigured, got %v", err)
	}
	_, err = fixture.service.GetFertility(ctx, FertilityRequest{OwnerID: "owner-1", Role: RoleOwner, Horizon: 25})
	if !errors.Is(err, ErrHorizonOutOfRange) {
		t.Fatalf("expected ErrHorizonOutOfRange, got %v", err)
	}
}

func TestGetFertilityExtendsHorizonToCoverToday(t *testing.T) {
	fixture := newCycleServiceFixture("2026-10-16")
	ctx := context.Background()
	if _, err := fixture.service.SaveCycle(ctx, "owner-1", CycleInput{LastPeriodDate: "2026-01-05", CycleLength: 28, PeriodLength: 5}); err != nil {
		t.Fatalf("save cycle: %v", err)
	}

	projection, err := fixture.service.GetFertility(ctx, FertilityRequest{OwnerID: "owner-1", Role: RoleOwner, Horizon: 1})
	if err != nil {
		t.Fatalf("get fertility: %v", err)
	}
	// 284 days elapsed: cycle 10 holds today, cycle 11 starts 2026-11-09.
	if projection.Horizon != 12 {
		t.Fatalf("expected horizon 12, got %d", projection.Horizon)
	}
	if !projection.Periods.Has(mustDate("2026-11-09")) {
		t.Fatalf("expected period 2026-11-09 to be projected")
	}
}

func TestGetPredictions(t *testing.T) {
	fixture := newCycleServiceFixture("2026-02-20")
	ctx := context.Background()
	if _, err := fixture.service.SaveCycle(ctx, "owner-1", CycleInput{LastPeriodDate: "2026-02-10", CycleLength: 28, PeriodLength: 5}); err != nil {
		t.Fatalf("save cycle: %v", err)
	}

	visible, err := fixture.service.GetPredictions(ctx, FertilityRequest{OwnerID: "owner-1", Role: RoleOwner})
	if err != nil {
		t.Fatalf("get predictions: %v", err)
	}
	if !visible.Visible || visible.Prediction == nil {
		t.Fatalf("expected owner prediction, got %+v", visible)
	}
	if visible.Prediction.CycleDay != 11 || visible.Prediction.NextPeriod.String() != "2026-03-10" {
		t.Fatalf("unexpected prediction %+v", visible.Prediction)
	}

	gated, err := fixture.service.GetPredictions(ctx, FertilityRequest{ViewerID: "partner-1", Role: RolePartner, Entitlement: EntitlementFree})
	if err != nil {
		t.Fatalf("get gated predictions: %v", err)
	}
	if !gated.Gated || gated.Prediction != nil {
		t.Fatalf("expected gated prediction, got %+v", gated)
	}
}

func TestViewCycleGatesPartnerProfile(t *testing.T) {
	fixture := newCycleServiceFixture("2026-03-01")
	ctx := context.Background()
	if _, err := fixture.service.SaveCycle(ctx, "owner-1", CycleInput{LastPeriodDate: "2026-02-10", CycleLength: 28, PeriodLength: 5}); err != nil {
		t.Fatalf("save cycle: %v", err)
	}

	premium, err := fixture.service.ViewCycle(ctx, FertilityRequest{ViewerID: "partner-1", Role: RolePartner, Entitlement: EntitlementPremium})
	if err != nil {
		t.Fatalf("premium view: %v", err)
	}
	if !premium.Visible || premium.Profile == nil || premium.Profile.CycleLength != 28 {
		t.Fatalf("expected premium partner to see the profile, got %+v", premium)
	}

	free, err := fixture.service.ViewCycle(ctx, FertilityRequest{ViewerID: "partner-1", Role: RolePartner, Entitlement: EntitlementFree})
	if err != nil {
		t.Fatalf("free view: %v", err)
	}
	if !free.Gated || free.Profile != nil || free.Version != 1 {
		t.Fatalf("expected gated view with version only, got %+v", free)
	}
}
