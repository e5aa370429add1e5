// Package notify is the lower-frequency synchronization path for cross-
// cutting alerts. It has no connection of its own: the list is pulled and
// fully replaced, the unread counter refreshes on a fixed interval, and the
// out-of-band new_notification trigger only invalidates. Mutations are
// fire-and-forget REST calls whose sole client-visible effect is a cache
// invalidation on success.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ForeFoldAi/eye-care-sub001/internal/store"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/interfaces"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// Channel synchronizes the notification caches.
type Channel struct {
	api    interfaces.NotificationAPI
	cache  *store.Store
	clock  interfaces.Clock
	period time.Duration
	log    zerolog.Logger

	mu      sync.Mutex
	timer   interfaces.Timer
	running bool
}

// NewChannel creates the side-channel. Start arms the counter refresh.
func NewChannel(api interfaces.NotificationAPI, cache *store.Store, clock interfaces.Clock, period time.Duration, logger zerolog.Logger) *Channel {
	return &Channel{
		api:    api,
		cache:  cache,
		clock:  clock,
		period: period,
		log:    logger.With().Str("component", "notify").Logger(),
	}
}

// Start begins the periodic unread-counter refresh. Idempotent.
func (c *Channel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.armLocked()
}

// Stop cancels the periodic refresh. Idempotent.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// armLocked schedules the next tick. Caller holds the lock.
func (c *Channel) armLocked() {
	c.timer = c.clock.AfterFunc(c.period, c.tick)
}

func (c *Channel) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), c.period)
	if err := c.RefreshUnread(ctx); err != nil {
		c.log.Warn().Err(err).Msg("unread counter refresh failed")
	}
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.armLocked()
	}
}

// Invalidate handles the out-of-band new_notification trigger: the list and
// the counter are marked stale, nothing is mutated directly.
func (c *Channel) Invalidate() {
	c.cache.InvalidateNotifications()
}

// Refresh pulls the list and the category buckets, replacing both wholesale.
func (c *Channel) Refresh(ctx context.Context) error {
	list, err := c.api.ListNotifications(ctx)
	if err != nil {
		return err
	}
	c.cache.SetNotifications(list)

	groups, err := c.api.ListNotificationGroups(ctx)
	if err != nil {
		return err
	}
	c.cache.SetNotificationGroups(groups)
	return nil
}

// RefreshUnread pulls the unread counter.
func (c *Channel) RefreshUnread(ctx context.Context) error {
	count, err := c.api.UnreadNotificationCount(ctx)
	if err != nil {
		return err
	}
	c.cache.SetNotificationUnread(count)
	return nil
}

// MarkRead marks one notification read, invalidating on success.
func (c *Channel) MarkRead(ctx context.Context, id string) error {
	if err := c.api.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// MarkAllRead marks everything read, invalidating on success.
func (c *Channel) MarkAllRead(ctx context.Context) error {
	if err := c.api.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Delete removes a notification, invalidating on success.
func (c *Channel) Delete(ctx context.Context, id string) error {
	if err := c.api.DeleteNotification(ctx, id); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Create posts a new notification, invalidating on success.
func (c *Channel) Create(ctx context.Context, n *types.Notification) (*types.Notification, error) {
	created, err := c.api.CreateNotification(ctx, n)
	if err != nil {
		return nil, err
	}
	c.Invalidate()
	return created, nil
}
