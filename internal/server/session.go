package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/dansk/core/codec"
	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/internal/journal"
	"github.com/FocuswithJustin/dansk/internal/logging"
	"github.com/FocuswithJustin/dansk/internal/validation"
	"github.com/FocuswithJustin/dansk/internal/verify"
)

// Message types a client sends as JSON text frames. A binary frame is a
// non-final chunk of raw source.
const (
	MessageChunk = "chunk"
	MessageReset = "reset"
)

// Reply types the server sends.
const (
	ReplyHello   = "hello"
	ReplyPending = "pending"
	ReplyResult  = "result"
	ReplyError   = "error"
	ReplyReset   = "reset"
)

// ClientMessage is a JSON text frame from the client.
type ClientMessage struct {
	Type  string `json:"type"`
	Data  string `json:"data,omitempty"`
	Final bool   `json:"final,omitempty"`
}

// Reply is a JSON text frame to the client.
type Reply struct {
	Type          string     `json:"type"`
	Session       string     `json:"session"`
	Output        string     `json:"output,omitempty"`
	Consumed      int        `json:"consumed"`
	Buffered      int        `json:"buffered"`
	Compounds     int        `json:"compounds,omitempty"`
	Substitutions int        `json:"substitutions,omitempty"`
	Warning       string     `json:"warning,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	Timestamp     string     `json:"timestamp"`
}

// ErrorInfo describes a failed message or translation.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
}

// session is one WebSocket connection with its own decoder. Only readPump
// touches the decoder; writePump owns all data frames.
type session struct {
	id      string
	source  string
	server  *Server
	conn    *websocket.Conn
	decoder *codec.Decoder
	limiter *messageRateBucket
	send    chan Reply
	started time.Time
}

func newSession(s *Server, conn *websocket.Conn, source string, skipLeadingLine bool) *session {
	return &session{
		id:     journal.NewSession(),
		source: source,
		server: s,
		conn:   conn,
		decoder: codec.NewDecoder(codec.Options{
			SkipLeadingLine: skipLeadingLine,
			Filename:        source,
		}),
		limiter: newMessageRateBucket(s.cfg.MaxMessageRate),
		send:    make(chan Reply, 16),
	}
}

func (c *session) reply(r Reply) {
	r.Session = c.id
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	c.send <- r
}

// readPump reads frames until the connection fails or the client closes it.
func (c *session) readPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	cfg := c.server.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	c.reply(Reply{Type: ReplyHello})
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WarnContext(ctx, "websocket unexpected close", "error", err)
			}
			return
		}
		if !c.limiter.allow() {
			logging.SecurityEvent("rate_limited", "websocket", "session", c.id)
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
				time.Now().Add(cfg.WriteTimeout))
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		switch kind {
		case websocket.BinaryMessage:
			c.chunk(ctx, data, false)
		case websocket.TextMessage:
			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				c.reply(Reply{Type: ReplyError, Buffered: c.decoder.Buffered(),
					Error: &ErrorInfo{Kind: "bad_message", Message: "invalid JSON: " + err.Error()}})
				continue
			}
			switch msg.Type {
			case MessageChunk:
				c.chunk(ctx, []byte(msg.Data), msg.Final)
			case MessageReset:
				c.decoder.Reset()
				c.reply(Reply{Type: ReplyReset})
			default:
				c.reply(Reply{Type: ReplyError, Buffered: c.decoder.Buffered(),
					Error: &ErrorInfo{Kind: "bad_message", Message: "unknown message type " + msg.Type}})
			}
		}
	}
}

// chunk feeds one chunk to the decoder and replies with the outcome.
func (c *session) chunk(ctx context.Context, data []byte, final bool) {
	if c.decoder.Buffered() == 0 {
		c.started = time.Now()
		if err := validation.CheckSource(data); err != nil {
			c.fail(ctx, len(data), err)
			return
		}
	}
	if err := validation.CheckSize(c.decoder.Buffered(), len(data), c.server.cfg.MaxSourceSize); err != nil {
		c.fail(ctx, c.decoder.Buffered()+len(data), err)
		return
	}
	held := c.decoder.Buffered() + len(data)
	text, consumed, err := c.decoder.Decode(data, final)
	if err != nil {
		c.fail(ctx, held, err)
		return
	}
	if !final {
		logging.DebugContext(ctx, "chunk buffered", "bytes", len(data), "buffered", c.decoder.Buffered())
		c.reply(Reply{Type: ReplyPending, Buffered: c.decoder.Buffered()})
		return
	}

	stats := c.decoder.Stats()
	r := Reply{
		Type:          ReplyResult,
		Output:        text,
		Consumed:      consumed,
		Compounds:     stats.Compounds,
		Substitutions: stats.Substitutions,
	}
	if c.server.cfg.Verify {
		if err := verify.Check(text, c.source); err != nil {
			r.Warning = err.Error()
		}
	}

	duration := time.Since(c.started)
	logging.DecodeSession(ctx, c.source, consumed, duration, nil,
		"compounds", stats.Compounds, "substitutions", stats.Substitutions)
	c.server.translator.Record(ctx, journal.Entry{
		Session:       c.id,
		Source:        c.source,
		Status:        journal.StatusOK,
		Bytes:         consumed,
		Compounds:     stats.Compounds,
		Substitutions: stats.Substitutions,
		Duration:      duration,
	})
	c.reply(r)
}

// fail ends the decode session with err. The buffer is discarded so the
// next chunk starts over.
func (c *session) fail(ctx context.Context, held int, err error) {
	c.decoder.Reset()

	duration := time.Since(c.started)
	logging.DecodeSession(ctx, c.source, held, duration, err)
	c.server.translator.Record(ctx, journal.Entry{
		Session:  c.id,
		Source:   c.source,
		Status:   journal.StatusFailed,
		Bytes:    held,
		Error:    err.Error(),
		Duration: duration,
	})
	c.reply(Reply{Type: ReplyError, Error: errorInfo(err)})
}

// writePump writes replies and keeps the connection alive with pings.
func (c *session) writePump() {
	cfg := c.server.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case r, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(r); err != nil {
				c.abandon()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.abandon()
				return
			}
		}
	}
}

// abandon closes a connection whose writer failed and drains send until
// readPump notices and closes it.
func (c *session) abandon() {
	c.conn.Close()
	for range c.send {
	}
}

// errorInfo classifies err for the client.
func errorInfo(err error) *ErrorInfo {
	info := &ErrorInfo{Kind: "internal", Message: err.Error()}
	var lex *errors.LexicalError
	switch {
	case errors.As(err, &lex):
		info.Kind = "lexical"
		info.Message = lex.Message
		info.Line = lex.Line
		info.Col = lex.Col
	case errors.Is(err, validation.ErrTooLarge):
		info.Kind = "too_large"
	case errors.Is(err, validation.ErrBinary):
		info.Kind = "binary"
	}
	return info
}
