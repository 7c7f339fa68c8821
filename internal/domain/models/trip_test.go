package models

import "testing"

func TestTripStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TripStatus
		want     bool
	}{
		{TripActive, TripFull, true},
		{TripActive, TripCompleted, true},
		{TripActive, TripCancelled, true},
		{TripFull, TripActive, true},
		{TripFull, TripCompleted, true},
		{TripFull, TripCancelled, false},
		{TripCompleted, TripActive, false},
		{TripCompleted, TripCancelled, false},
		{TripCancelled, TripActive, false},
		{TripCancelled, TripCompleted, false},
		{TripActive, TripActive, true},
		{TripCancelled, TripCancelled, true},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTripStatusTerminal(t *testing.T) {
	for _, s := range []TripStatus{TripActive, TripFull} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []TripStatus{TripCompleted, TripCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestReservationStatusTerminal(t *testing.T) {
	for _, s := range []ReservationStatus{ReservationPending, ReservationConfirmed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []ReservationStatus{ReservationCancelled, ReservationCompleted} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PayCash, PayOrangeMoney, PayWave, PayVirement} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if PaymentMethod("bitcoin").Valid() {
		t.Error("unknown payment method accepted")
	}
}
