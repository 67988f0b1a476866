package platform

import (
	"context"
	"fmt"
	"net/http"

	"chatwarden/pkg/retrylimit"

	"github.com/nicklaw5/helix"
	"github.com/rs/zerolog"
)

// HelixLive answers "is the stream live" through the Twitch Helix API.
// Requests go through an adaptive limiter with retries so a throttling API
// degrades the poll rate instead of failing payout cycles.
type HelixLive struct {
	client  *helix.Client
	login   string
	limiter *retrylimit.AdaptiveLimiter
	log     zerolog.Logger
}

// NewHelixLive builds a live checker using app credentials. The token is
// requested once at startup.
func NewHelixLive(clientID, clientSecret, login string, logger zerolog.Logger) (*HelixLive, error) {
	client, err := helix.NewClient(&helix.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create helix client: %w", err)
	}

	h := &HelixLive{
		client:  client,
		login:   login,
		limiter: retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		log:     logger,
	}

	err = retrylimit.WithRetry(context.Background(), func() error {
		resp, err := client.RequestAppAccessToken([]string{})
		if err != nil {
			return fmt.Errorf("failed to request app access token: %w", err)
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return &retrylimit.FatalError{Err: fmt.Errorf("app access token request returned %d: %s", resp.StatusCode, resp.ErrorMessage)}
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("app access token request returned %d: %s", resp.StatusCode, resp.ErrorMessage)
		}
		client.SetAppAccessToken(resp.Data.AccessToken)
		return nil
	}, h.limiter, 3)
	if err != nil {
		return nil, err
	}

	return h, nil
}

// IsLive reports whether the channel currently has an active stream.
func (h *HelixLive) IsLive(ctx context.Context) (bool, error) {
	var live bool
	err := retrylimit.WithRetry(ctx, func() error {
		resp, err := h.client.GetStreams(&helix.StreamsParams{
			UserLogins: []string{h.login},
		})
		if err != nil {
			return fmt.Errorf("failed to get streams: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("streams request returned %d: %s", resp.StatusCode, resp.ErrorMessage)
		}
		live = len(resp.Data.Streams) > 0
		return nil
	}, h.limiter, 3)
	return live, err
}
