package transport

import (
	"context"
	"errors"
	"time"

	"nhooyr.io/websocket"
)

// outboundQueueDepth bounds how many un-flushed outbound messages a single
// slow client may accumulate before newer messages start displacing older
// ones. Render broadcasts supersede one another anyway, so dropping a stale
// one in favor of a fresher one is never a correctness problem — only the
// newest render matters to a client that just fell behind.
const outboundQueueDepth = 8

var errClientClosed = errors.New("transport: client connection closed")

// client wraps one accepted WS connection with the kind it declared in its
// hello and a bounded outbound queue so one slow reader cannot stall a
// broadcast to everyone else.
type client struct {
	id   string
	kind string

	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		kind: "unknown",
		conn: conn,
		out:  make(chan []byte, outboundQueueDepth),
		done: make(chan struct{}),
	}
}

// send enqueues data for delivery, dropping the oldest queued message if the
// client has fallen behind rather than blocking the broadcaster.
func (c *client) send(data []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	default:
	}
	select {
	case <-c.out:
	default:
	}
	select {
	case c.out <- data:
	case <-c.done:
		return errClientClosed
	}
	return nil
}

// writeLoop drains the outbound queue to the socket until the connection
// closes. It is the only goroutine that writes to conn.
func (c *client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case data := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *client) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
