package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

const (
	pendingNudgeJobName = "order-pending-nudge"
	expirySweepJobName  = "order-expiry-sweep"
)

type expiringNotifier interface {
	NotifyExpiring(ctx context.Context, within time.Duration) (int, error)
}

type overdueExpirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// PendingNudgeJobParams configure the pending order nudge.
type PendingNudgeJobParams struct {
	Logger *logger.Logger
	Orders expiringNotifier
	Before time.Duration
}

type pendingNudgeJob struct {
	logg   *logger.Logger
	orders expiringNotifier
	before time.Duration
}

// NewPendingNudgeJob builds the job that reminds merchants about orders close to their acknowledgment deadline.
func NewPendingNudgeJob(params PendingNudgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Before <= 0 {
		return nil, fmt.Errorf("nudge lead time must be positive")
	}
	return &pendingNudgeJob{logg: params.Logger, orders: params.Orders, before: params.Before}, nil
}

func (j *pendingNudgeJob) Name() string { return pendingNudgeJobName }

func (j *pendingNudgeJob) Run(ctx context.Context) error {
	count, err := j.orders.NotifyExpiring(ctx, j.before)
	if count > 0 {
		j.logg.Info(j.logg.WithField(ctx, "nudged", count), "pending orders nudged")
	}
	return err
}

// ExpirySweepJobParams configure the overdue order sweep.
type ExpirySweepJobParams struct {
	Logger *logger.Logger
	Orders overdueExpirer
}

type expirySweepJob struct {
	logg   *logger.Logger
	orders overdueExpirer
}

// NewExpirySweepJob builds the job that rejects pending orders whose deadline passed without a timer firing.
func NewExpirySweepJob(params ExpirySweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &expirySweepJob{logg: params.Logger, orders: params.Orders}, nil
}

func (j *expirySweepJob) Name() string { return expirySweepJobName }

func (j *expirySweepJob) Run(ctx context.Context) error {
	count, err := j.orders.ExpireOverdue(ctx)
	if count > 0 {
		j.logg.Warn(j.logg.WithField(ctx, "expired", count), "overdue pending orders rejected by sweep")
	}
	return err
}
