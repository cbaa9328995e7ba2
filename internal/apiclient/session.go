package apiclient

import (
	"context"
	"time"
)

// Reasons a session ends.
const (
	ReasonRefreshRejected = "refresh_rejected"
	ReasonLogout          = "logout"
)

// SessionExpired is emitted after the stored credentials were cleared.
type SessionExpired struct {
	Reason string
	At     time.Time
}

// SessionListener reacts to the end of a session, typically by sending the
// member back to the login screen. Listeners run synchronously and must not
// call back into Refresh.
type SessionListener func(SessionExpired)

// OnSessionExpired subscribes l to session-expired events.
func (c *Client) OnSessionExpired(l SessionListener) {
	if l == nil {
		return
	}
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, l)
	c.listenersMu.Unlock()
}

// EndSession clears the stored credentials and notifies listeners.
func (c *Client) EndSession(ctx context.Context, reason string) error {
	return c.endSession(ctx, reason)
}

func (c *Client) endSession(ctx context.Context, reason string) error {
	err := c.tokens.ClearTokens(ctx)
	if err != nil {
		c.logger.Error().Err(err).Str("reason", reason).Msg("failed to clear tokens")
	}
	c.recorder.RecordSessionExpired(reason)
	c.logger.Info().Str("reason", reason).Msg("session ended")

	event := SessionExpired{Reason: reason, At: time.Now()}
	c.listenersMu.RLock()
	listeners := append([]SessionListener(nil), c.listeners...)
	c.listenersMu.RUnlock()
	for _, l := range listeners {
		l(event)
	}
	return err
}
