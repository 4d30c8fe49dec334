package realtime

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Conn is a live change-stream connection. Events is closed when the
// connection dies; the supervisor then redials.
type Conn interface {
	Subscribe(topic string) error
	Unsubscribe(topic string) error
	Events() <-chan Event
	Close() error
}

// Dialer opens a Conn. Injectable so tests can supply a fake stream.
type Dialer func(ctx context.Context) (Conn, error)

// NewDialer returns a Dialer that speaks the websocket change-stream
// protocol at wsURL, authenticating with apiKey.
func NewDialer(wsURL, apiKey string, log zerolog.Logger) Dialer {
	return func(ctx context.Context) (Conn, error) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+apiKey)

		ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
		if err != nil {
			return nil, err
		}
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		c := &wsConn{
			ws:     ws,
			events: make(chan Event, 64),
			log:    log.With().Str("component", "realtime").Logger(),
		}
		go c.readLoop()
		return c, nil
	}
}

type wsConn struct {
	ws     *websocket.Conn
	events chan Event
	log    zerolog.Logger

	writeMu   sync.Mutex // gorilla allows one concurrent writer
	closeOnce sync.Once
}

func (c *wsConn) Subscribe(topic string) error {
	return c.writeFrame(clientFrame{Action: "subscribe", Topic: topic})
}

func (c *wsConn) Unsubscribe(topic string) error {
	return c.writeFrame(clientFrame{Action: "unsubscribe", Topic: topic})
}

func (c *wsConn) writeFrame(f clientFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(f)
}

func (c *wsConn) Events() <-chan Event { return c.events }

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

// readLoop decodes server frames into Events. Malformed frames are
// logged and dropped; they never terminate the stream. The loop exits
// and closes the event channel on the first transport error.
func (c *wsConn) readLoop() {
	defer close(c.events)
	for {
		var frame serverFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("change stream closed unexpectedly")
			}
			return
		}
		if frame.Topic == "" || frame.Table == "" || !frame.Operation.valid() {
			droppedTotal.WithLabelValues("malformed_frame").Inc()
			c.log.Warn().
				Str("topic", frame.Topic).
				Str("table", frame.Table).
				Str("operation", string(frame.Operation)).
				Msg("dropping malformed push frame")
			continue
		}
		c.events <- Event{
			Topic:     frame.Topic,
			Table:     frame.Table,
			Operation: frame.Operation,
			Record:    frame.Record,
		}
	}
}
