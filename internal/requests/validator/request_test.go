package validator

import (
	"strings"
	"testing"
	"time"

	"imovia/pkg/logger"
	"imovia/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func fixedValidator(now time.Time) *RequestValidator {
	v := NewRequestValidator(testLogger())
	v.now = func() time.Time { return now }
	return v
}

const (
	testClientID   = "507f1f77bcf86cd799439011"
	testPropertyID = "507f1f77bcf86cd799439012"
	testUnitID     = "507f1f77bcf86cd799439013"
)

func validVisit(slots ...time.Time) *model.VisitRequest {
	return &model.VisitRequest{
		ClientID:       testClientID,
		PropertyID:     testPropertyID,
		UnitID:         testUnitID,
		RequestedSlots: slots,
		Status:         model.VisitPending,
	}
}

func TestValidateVisitSlotWindow(t *testing.T) {
	// Mid-afternoon reference point, far from any day boundary.
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	v := fixedValidator(now)

	tests := []struct {
		name      string
		slot      time.Time
		wantError bool
	}{
		{
			name:      "tomorrow midnight is the first acceptable instant",
			slot:      time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
			wantError: false,
		},
		{
			name:      "middle of the window",
			slot:      time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC),
			wantError: false,
		},
		{
			name:      "last instant before window end",
			slot:      time.Date(2025, 6, 24, 23, 59, 59, 0, time.UTC),
			wantError: false,
		},
		{
			name:      "window end itself is excluded",
			slot:      time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC),
			wantError: true,
		},
		{
			name:      "same-day slot is rejected",
			slot:      time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC),
			wantError: true,
		},
		{
			name:      "past slot is rejected",
			slot:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateVisit(validVisit(tt.slot))
			if tt.wantError && err == nil {
				t.Errorf("expected error for slot %s, got nil", tt.slot)
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error for slot %s: %v", tt.slot, err)
			}
		})
	}
}

func TestValidateVisitOneBadSlotFailsTheRequest(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	v := fixedValidator(now)

	good := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	bad := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)

	err := v.ValidateVisit(validVisit(good, bad))
	if err == nil {
		t.Fatal("expected error when any slot is outside the window")
	}
	if !strings.Contains(err.Error(), "RequestedSlots") {
		t.Errorf("error should name RequestedSlots, got: %v", err)
	}
}

func TestValidateVisitStructRules(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	v := fixedValidator(now)
	okSlot := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*model.VisitRequest)
		wantErr string
	}{
		{
			name:    "missing client id",
			mutate:  func(r *model.VisitRequest) { r.ClientID = "" },
			wantErr: "ClientID",
		},
		{
			name:    "malformed property id",
			mutate:  func(r *model.VisitRequest) { r.PropertyID = "not-an-object-id" },
			wantErr: "PropertyID",
		},
		{
			name:    "no slots",
			mutate:  func(r *model.VisitRequest) { r.RequestedSlots = nil },
			wantErr: "RequestedSlots",
		},
		{
			name: "too many slots",
			mutate: func(r *model.VisitRequest) {
				r.RequestedSlots = nil
				for i := 0; i < 11; i++ {
					r.RequestedSlots = append(r.RequestedSlots, okSlot.Add(time.Duration(i)*time.Hour))
				}
			},
			wantErr: "RequestedSlots",
		},
		{
			name:    "unknown status",
			mutate:  func(r *model.VisitRequest) { r.Status = "archived" },
			wantErr: "Status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := validVisit(okSlot)
			tt.mutate(request)

			err := v.ValidateVisit(request)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateReservation(t *testing.T) {
	v := fixedValidator(time.Now())

	request := &model.ReservationRequest{
		ClientID:   testClientID,
		PropertyID: testPropertyID,
		UnitID:     testUnitID,
		Status:     model.ReservationPending,
	}
	if err := v.ValidateReservation(request); err != nil {
		t.Errorf("unexpected error for valid reservation: %v", err)
	}

	request.UnitID = ""
	if err := v.ValidateReservation(request); err == nil {
		t.Error("expected error for missing unit id")
	}
}

func TestSlotWindowSpansFourteenDays(t *testing.T) {
	now := time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)
	v := fixedValidator(now)

	start, end := v.SlotWindow()
	if got := end.Sub(start); got != 14*24*time.Hour {
		t.Errorf("window span = %v, want %v", got, 14*24*time.Hour)
	}
	if start != time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC) {
		t.Errorf("window start = %v, want start of tomorrow", start)
	}
}
