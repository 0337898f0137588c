package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

type fakeOrderService struct {
	nudgeWithin time.Duration
	nudged      int
	expired     int
	err         error
}

func (f *fakeOrderService) NotifyExpiring(_ context.Context, within time.Duration) (int, error) {
	f.nudgeWithin = within
	return f.nudged, f.err
}

func (f *fakeOrderService) ExpireOverdue(context.Context) (int, error) {
	return f.expired, f.err
}

func TestPendingNudgeJobUsesLeadTime(t *testing.T) {
	orders := &fakeOrderService{nudged: 2}
	job, err := NewPendingNudgeJob(PendingNudgeJobParams{Logger: logger.Nop(), Orders: orders, Before: time.Minute})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "order-pending-nudge" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if orders.nudgeWithin != time.Minute {
		t.Fatalf("expected lead time 1m, got %s", orders.nudgeWithin)
	}
}

func TestPendingNudgeJobValidation(t *testing.T) {
	if _, err := NewPendingNudgeJob(PendingNudgeJobParams{Logger: logger.Nop(), Orders: &fakeOrderService{}}); err == nil {
		t.Fatal("expected error for zero lead time")
	}
	if _, err := NewPendingNudgeJob(PendingNudgeJobParams{Orders: &fakeOrderService{}, Before: time.Minute}); err == nil {
		t.Fatal("expected error for missing logger")
	}
}

func TestExpirySweepJobPropagatesError(t *testing.T) {
	orders := &fakeOrderService{expired: 1, err: errors.New("db down")}
	job, err := NewExpirySweepJob(ExpirySweepJobParams{Logger: logger.Nop(), Orders: orders})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "order-expiry-sweep" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error to propagate")
	}
}
