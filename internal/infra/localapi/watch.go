package localapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aptimaster-sync/internal/domain"
	"github.com/gorilla/websocket"
)

type feedMessage struct {
	Type    string          `json:"type"`
	Payload domain.Revision `json:"payload"`
}

// Watch subscribes to the local backend's change feed. The returned channel receives a
// revision for every committed change and is closed when the connection drops or ctx ends.
func (c *Client) Watch(ctx context.Context) (<-chan domain.Revision, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial change feed: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial change feed: %w", err)
	}

	out := make(chan domain.Revision, 1)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()
	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()
		for {
			var msg feedMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != "revision" {
				continue
			}
			select {
			case out <- msg.Payload:
			default:
				// keep only the newest revision for slow readers
				select {
				case <-out:
				default:
				}
				out <- msg.Payload
			}
		}
	}()
	return out, nil
}
