// Package retention deletes aged marketplace orders together with
// their billing and shipping profiles.
package retention

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/domain/order"
	"github.com/amws/backend/internal/domain/shared"
	"github.com/amws/backend/internal/infrastructure/config"
)

// PurgeOptions control one purge run
type PurgeOptions struct {
	// Interval overrides the configured minimum order age in
	// seconds; nil reads the configuration
	Interval *int
	// Limit caps the number of orders deleted; zero means unbounded
	Limit int
	// Force purges even when purging is disabled in configuration.
	// Forcing requires an explicit interval when no configured one
	// applies.
	Force bool
}

// PurgeResult reports the outcome of one purge run
type PurgeResult struct {
	// Deleted is the number of orders deleted
	Deleted int
	// Profiles is the number of billing and shipping profiles
	// deleted alongside the orders
	Profiles int
}

// Purger deletes orders older than the retention interval
type Purger struct {
	cfg      config.PurgeConfig
	orders   order.OrderRepository
	profiles order.ProfileRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewPurger creates a retention purger
func NewPurger(cfg config.PurgeConfig, orders order.OrderRepository, profiles order.ProfileRepository, logger *zap.Logger) *Purger {
	return &Purger{
		cfg:      cfg,
		orders:   orders,
		profiles: profiles,
		logger:   logger.Named("purge"),
		now:      time.Now,
	}
}

// Purge deletes orders created at or before now minus the resolved
// interval, oldest first, together with their profiles. Orders are
// deleted one at a time to bound memory use on unbounded purges; the
// batch is not a single transaction.
func (p *Purger) Purge(ctx context.Context, opts PurgeOptions) (PurgeResult, error) {
	if !p.cfg.Status && !opts.Force {
		p.logger.Warn("purging orders is disabled, nothing deleted")
		return PurgeResult{}, nil
	}

	if err := p.validateOptions(opts); err != nil {
		return PurgeResult{}, err
	}

	interval, err := p.resolveInterval(opts)
	if err != nil {
		return PurgeResult{}, err
	}

	cutoff := p.now().Add(-time.Duration(interval) * time.Second)
	candidates, err := p.orders.FindCreatedBefore(ctx, order.DefaultType, cutoff, opts.Limit)
	if err != nil {
		return PurgeResult{}, err
	}

	var result PurgeResult
	for i := range candidates {
		profiles, err := p.deleteOrder(ctx, &candidates[i])
		if err != nil {
			p.logger.Error("deleting order failed",
				zap.String("order_id", candidates[i].ID.String()),
				zap.Error(err),
			)
			return result, err
		}
		result.Deleted++
		result.Profiles += profiles
	}

	p.logger.Info("orders purged",
		zap.Int("deleted", result.Deleted),
		zap.Int("profiles_deleted", result.Profiles),
		zap.Time("cutoff", cutoff),
	)
	return result, nil
}

// validateOptions rejects negative intervals and limits
func (p *Purger) validateOptions(opts PurgeOptions) error {
	if opts.Interval != nil && *opts.Interval < 0 {
		return shared.NewArgumentError(
			"the purge interval must be zero or a positive number of seconds, got %d", *opts.Interval)
	}
	if opts.Limit < 0 {
		return shared.NewArgumentError(
			"the purge limit must be zero or a positive number, got %d", opts.Limit)
	}
	return nil
}

// resolveInterval picks the effective interval: an explicit option
// wins over configuration. A forced purge with purging disabled and
// no explicit interval has no interval to apply.
func (p *Purger) resolveInterval(opts PurgeOptions) (int, error) {
	if opts.Interval != nil {
		return *opts.Interval, nil
	}
	if !p.cfg.Status {
		return 0, shared.NewConfigurationError(
			"purging is disabled and no explicit interval was given, cannot force a purge")
	}
	if p.cfg.Interval < 0 {
		return 0, shared.NewConfigurationError(
			"the configured purge interval must be zero or positive, got %d", p.cfg.Interval)
	}
	return p.cfg.Interval, nil
}

// deleteOrder deletes one order and then its billing profile and its
// shipments' shipping profiles. The order goes first: the schema
// references profiles from orders and shipments, so the profiles can
// only be removed once nothing references them. It returns the number
// of profiles deleted.
func (p *Purger) deleteOrder(ctx context.Context, o *order.Order) (int, error) {
	profileIDs := make([]uuid.UUID, 0, 1+len(o.Shipments))
	if o.BillingProfileID != nil {
		profileIDs = append(profileIDs, *o.BillingProfileID)
	}
	for i := range o.Shipments {
		if o.Shipments[i].ShippingProfileID != nil {
			profileIDs = append(profileIDs, *o.Shipments[i].ShippingProfileID)
		}
	}

	if err := p.orders.Delete(ctx, o.ID); err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range profileIDs {
		if err := p.profiles.Delete(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}

	p.logger.Debug("order deleted",
		zap.String("order_id", o.ID.String()),
		zap.String("remote_id", o.RemoteID),
		zap.Int("profiles_deleted", deleted),
	)
	return deleted, nil
}
