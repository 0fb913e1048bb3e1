package domain

import (
	"errors"
	"testing"
)

func TestShipment_ForwardOnly(t *testing.T) {
	s := NewPlaceholder("o-1")
	if err := s.Advance(StatusShipped, "early"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unbooked placeholder must not advance, err = %v", err)
	}
	if s.Status != StatusPending {
		t.Fatalf("status = %s", s.Status)
	}
	s.AttachTracking("fake", "TRK1")
	if err := s.Advance(StatusShipped, "skip"); err != nil {
		t.Fatalf("forward jump should be allowed for carrier reports: %v", err)
	}
	if err := s.Advance(StatusProcessing, "late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backward err = %v", err)
	}
	if err := s.Cancel("too late"); !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("cancel shipped err = %v", err)
	}
	if err := s.Advance(StatusDelivered, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(StatusFailed, "lost"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delivered must be frozen, err = %v", err)
	}
	if len(s.History) != 3 {
		t.Errorf("history = %+v", s.History)
	}
}

func TestShipment_StartProcessingAndCancel(t *testing.T) {
	s := NewPlaceholder("o-1")
	if err := s.StartProcessing("u-1", Address{Country: "TR"}, []Line{{"p", 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.StartProcessing("u-1", Address{}, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second start err = %v", err)
	}
	s.AttachTracking("fake", "TRK1")
	if !s.Booked() {
		t.Error("expected booked")
	}
	if err := s.Cancel("order cancelled"); err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(StatusShipped, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled must be frozen, err = %v", err)
	}

	tomb := NewCancelledTombstone("o-2", "early cancel")
	if err := tomb.StartProcessing("u", Address{}, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("tombstone start err = %v", err)
	}
}
