package engine

import (
	"testing"
	"time"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

func TestWithinGraceBoundary(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := &model.Booking{CreatedAt: created}
	l := &model.Listing{PickupWindowStart: created.Add(6 * time.Hour)}

	if !WithinGrace(b, l, created.Add(899*time.Second)) {
		t.Error("cancel at +899s should be inside the grace period")
	}
	if !WithinGrace(b, l, created.Add(900*time.Second)) {
		t.Error("cancel at exactly +900s should still be inside the grace period")
	}
	if WithinGrace(b, l, created.Add(901*time.Second)) {
		t.Error("cancel at +901s should be outside the grace period")
	}
}

func TestWithinGraceBlockedByPickupWindow(t *testing.T) {
	// Conservative rule: even inside the 15 minutes, cancellation stops
	// once the pickup window opens.
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := &model.Booking{CreatedAt: created}
	l := &model.Listing{PickupWindowStart: created.Add(5 * time.Minute)}

	if !WithinGrace(b, l, created.Add(4*time.Minute)) {
		t.Error("before the pickup window opens the grace period applies")
	}
	if WithinGrace(b, l, created.Add(6*time.Minute)) {
		t.Error("once the pickup window has started cancellation is refused")
	}
}

func TestCanEditBoundary(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := &model.Listing{CreatedAt: created}

	if !CanEdit(l, created.Add(4*time.Minute+59*time.Second)) {
		t.Error("edit at +4m59s should be allowed")
	}
	if !CanEdit(l, created.Add(5*time.Minute)) {
		t.Error("edit at exactly +5m should be allowed")
	}
	if CanEdit(l, created.Add(5*time.Minute+1*time.Second)) {
		t.Error("edit at +5m01s should be refused")
	}
}
