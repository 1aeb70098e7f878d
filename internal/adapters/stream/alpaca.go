// Package stream implements the push-based news source: the Alpaca news
// WebSocket. It is the primary, lowest-latency adapter and the only one
// with connection state to manage.
package stream

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sentinel/internal/adapters/config"
	"sentinel/internal/domain"
	"sentinel/internal/pipeline"
	"sentinel/pkg/errors"
	"sentinel/pkg/logger"
	"sentinel/pkg/reconnect"
)

// State is the connection lifecycle of the news stream.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateHandshaking  State = "handshaking"
	StateStreaming    State = "streaming"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

// controlFrame is a non-news message from the upstream: handshake
// acknowledgments and errors.
type controlFrame struct {
	Type string `json:"T"`
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// newsRecord is one news item as delivered on the stream. Frames carry
// arrays of records; records with other type discriminators are control
// noise and are ignored.
type newsRecord struct {
	Type      string    `json:"T"`
	ID        int64     `json:"id"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	Symbols   []string  `json:"symbols"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

type authRequest struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type subscribeRequest struct {
	Action string   `json:"action"`
	News   []string `json:"news"`
}

// Adapter maintains the stream connection and feeds received news records
// through the pipeline. Reconnects forever with exponential backoff; a
// single malformed frame never stops the loop.
type Adapter struct {
	url         string
	apiKey      string
	secretKey   string
	readTimeout time.Duration
	pipe        *pipeline.Pipeline
	backoff     *reconnect.Manager
	log         *logger.Logger

	mu    sync.RWMutex
	state State
}

// New creates the stream adapter.
func New(cfg config.AlpacaConfig, pipe *pipeline.Pipeline, backoff *reconnect.Manager) *Adapter {
	readTimeout := cfg.ReadLimit
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	return &Adapter{
		url:         cfg.StreamURL,
		apiKey:      cfg.APIKey,
		secretKey:   cfg.SecretKey,
		readTimeout: readTimeout,
		pipe:        pipe,
		backoff:     backoff,
		log:         logger.Get().With("component", "alpaca_stream"),
		state:       StateDisconnected,
	}
}

// State returns the current connection state.
func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Run drives the connect/handshake/stream cycle until ctx is cancelled.
// Connection failures back off exponentially; reaching the streaming state
// resets the backoff to its initial value.
func (a *Adapter) Run(ctx context.Context) {
	defer a.setState(StateDisconnected)

	for ctx.Err() == nil {
		conn, err := a.connect(ctx)
		if err != nil {
			a.setState(StateDisconnected)
			if ctx.Err() != nil {
				return
			}
			a.log.Warnw("Stream connection failed", "error", err)
			if err := a.backoff.Wait(ctx); err != nil {
				return
			}
			continue
		}

		a.backoff.Reset()
		a.setState(StateStreaming)
		a.log.Info("✅ News stream connected")

		a.stream(ctx, conn)

		a.closeConn(conn)
		a.setState(StateDisconnected)
	}
}

// connect dials the upstream and performs the three-step handshake:
// read "connected", authenticate, subscribe to all news topics.
func (a *Adapter) connect(ctx context.Context) (*websocket.Conn, error) {
	a.setState(StateConnecting)
	a.log.Infof("Connecting to news stream: %s", a.url)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, a.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial failed")
	}

	a.setState(StateHandshaking)
	if err := a.handshake(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (a *Adapter) handshake(conn *websocket.Conn) error {
	if err := a.expectControl(conn, "connected"); err != nil {
		return err
	}

	if err := a.writeJSON(conn, authRequest{Action: "auth", Key: a.apiKey, Secret: a.secretKey}); err != nil {
		return errors.Wrap(err, "failed to send auth")
	}
	if err := a.expectControl(conn, "authenticated"); err != nil {
		return err
	}

	if err := a.writeJSON(conn, subscribeRequest{Action: "subscribe", News: []string{"*"}}); err != nil {
		return errors.Wrap(err, "failed to send subscribe")
	}
	return a.expectControl(conn, "subscribed")
}

// expectControl reads one control frame and verifies the acknowledgment.
func (a *Adapter) expectControl(conn *websocket.Conn, want string) error {
	if err := conn.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return err
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		return errors.Wrapf(errors.ErrHandshakeFailed, "waiting for %q: %v", want, err)
	}

	var frames []controlFrame
	if err := json.Unmarshal(data, &frames); err != nil {
		var single controlFrame
		if err := json.Unmarshal(data, &single); err != nil {
			return errors.Wrapf(errors.ErrHandshakeFailed, "unreadable control frame awaiting %q", want)
		}
		frames = []controlFrame{single}
	}

	for _, f := range frames {
		if f.Type == "error" {
			return errors.Wrapf(errors.ErrHandshakeFailed, "upstream error %d: %s", f.Code, f.Msg)
		}
		if f.Msg == want {
			return nil
		}
	}
	return errors.Wrapf(errors.ErrHandshakeFailed, "expected %q acknowledgment", want)
}

func (a *Adapter) writeJSON(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// stream reads frames until cancellation or a connection error. Liveness on
// an idle stream is ping/pong: a keepalive goroutine pings the upstream and
// every pong or data frame extends the read deadline, so quiet periods never
// tear the connection down. An expired deadline therefore means the peer is
// gone, and the loop returns to trigger a reconnect.
func (a *Adapter) stream(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(a.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(a.readTimeout))
	})

	stop := make(chan struct{})
	defer close(stop)
	go a.keepAlive(ctx, conn, stop)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.log.Info("Stream closed by upstream")
			} else {
				a.log.Warnw("Stream read failed", "error", err)
			}
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(a.readTimeout))
		if a.handleFrame(data) > 0 {
			a.pipe.FlushStores()
		}
	}
}

// keepAlive pings at half the read deadline so pongs keep an idle connection
// alive. On cancellation it forces an immediate deadline to unblock the
// read loop.
func (a *Adapter) keepAlive(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(a.readTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// handleFrame decodes one frame into records and processes the news ones.
// Returns how many events entered the pipeline. Malformed records are
// skipped; the frame loop continues.
func (a *Adapter) handleFrame(data []byte) int {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		// Single-object frame
		records = []json.RawMessage{data}
	}

	processed := 0
	for _, raw := range records {
		var rec newsRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			a.log.Debugf("Skipping unreadable record: %v", err)
			continue
		}
		if rec.Type != "n" {
			continue
		}

		providerID := ""
		if rec.ID != 0 {
			providerID = strconv.FormatInt(rec.ID, 10)
		}

		source := rec.Source
		if source == "" {
			source = "alpaca"
		}

		observed := rec.CreatedAt
		if observed.IsZero() {
			observed = time.Now().UTC()
		}

		a.pipe.Process(domain.RawEvent{
			Headline:   rec.Headline,
			Summary:    rec.Summary,
			Symbols:    rec.Symbols,
			Source:     "alpaca:" + source,
			ProviderID: providerID,
			ObservedAt: observed,
			URL:        rec.URL,
		})
		processed++
	}
	return processed
}

func (a *Adapter) closeConn(conn *websocket.Conn) {
	err := conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		a.log.Debugf("Error sending close message: %v", err)
	}
	conn.Close()
}
