package client

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/threadline/comments-backend/ws"
)

// ChangeFeed subscribes to the server's /ws/comments change signals.
type ChangeFeed struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger
}

func NewChangeFeed(url string, log zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{
		url:    url,
		dialer: websocket.DefaultDialer,
		log:    log.With().Str("component", "change-feed").Logger(),
	}
}

// Watch connects and calls onChange for every comments_changed event until
// ctx is done or the server goes away.
func (f *ChangeFeed) Watch(ctx context.Context, onChange func()) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer conn.Close()
		for {
			var event ws.Event
			if err := conn.ReadJSON(&event); err != nil {
				if ctx.Err() == nil {
					f.log.Warn().Err(err).Msg("change feed closed")
				}
				return
			}
			if event.Type == ws.EventCommentsChanged {
				onChange()
			}
		}
	}()
	return nil
}
