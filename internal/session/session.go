// Package session runs the per-connection control loop: it reads client
// frames, drives the selected producer to completion and writes every event
// as one outbound frame, in emission order.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"pkt.systems/pslog"

	"tutor-sketchpad/internal/event"
	"tutor-sketchpad/internal/wire"
)

// FailureMessage is sent to the client when a turn ends early.
const FailureMessage = "Sorry, I couldn't finish that answer. Please try again."

var errTransport = errors.New("transport failure")

// Transport is the duplex connection of one client. *websocket.Conn
// satisfies it.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Selector picks the event sequence answering a user turn.
type Selector interface {
	Select(ctx context.Context, text string) event.Stream
}

// Config controls pacing and write behaviour.
type Config struct {
	// HonorPacing makes the loop wait out each event's pacing hint.
	HonorPacing bool
	// PaceScale multiplies pacing hints; values <= 0 mean 1.
	PaceScale    float64
	WriteTimeout time.Duration
}

// State is the phase of a session.
type State int32

const (
	Idle State = iota
	Streaming
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session serves one connection.
type Session struct {
	id       string
	conn     Transport
	selector Selector
	cfg      Config
	state    atomic.Int32
}

// New creates an idle session.
func New(id string, conn Transport, selector Selector, cfg Config) *Session {
	if cfg.PaceScale <= 0 {
		cfg.PaceScale = 1
	}
	return &Session{id: id, conn: conn, selector: selector, cfg: cfg}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current phase.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run serves the connection until the peer disconnects, a write fails or ctx
// is cancelled. The transport is closed on return.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	log := pslog.Ctx(ctx).With("session", s.id)
	ctx = pslog.ContextWithLogger(ctx, log)
	defer func() {
		s.state.Store(int32(Closed))
		cancel()
		_ = s.conn.Close()
		log.Info("session closed")
	}()

	inbound := make(chan []byte)
	go s.readPump(ctx, cancel, inbound)
	log.Info("session opened")

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-inbound:
			if err := s.handle(ctx, data); err != nil {
				log.Debug("session ending", "err", err)
				return
			}
		}
	}
}

// readPump hands inbound frames to the loop one at a time. A frame is only
// read after the previous one has been taken.
func (s *Session) readPump(ctx context.Context, cancel context.CancelFunc, inbound chan<- []byte) {
	defer cancel()
	log := pslog.Ctx(ctx)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("websocket read failed", "err", err)
			} else {
				log.Debug("websocket read ended", "err", err)
			}
			return
		}
		select {
		case inbound <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handle(ctx context.Context, data []byte) error {
	log := pslog.Ctx(ctx)
	in, err := wire.Decode(data)
	if err != nil {
		log.Debug("dropping inbound message", "err", err, "bytes", len(data))
		return nil
	}
	switch in.Type {
	case wire.TypeUserMessage:
		return s.turn(ctx, *in.Text)
	case wire.TypeClearCanvas:
		return s.send(ctx, event.NewDraw(event.Clear{}, 0))
	default:
		log.Trace("ignoring inbound message", "type", in.Type)
		return nil
	}
}

// turn echoes text and streams the selected answer. Producer failures are
// reported to the client and end only the turn; transport failures end the
// session.
func (s *Session) turn(ctx context.Context, text string) error {
	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()
	span.SetAttributes(attribute.Int("turn.text_length", len(text)))
	log := pslog.Ctx(ctx)
	start := time.Now()

	if err := s.send(ctx, event.NewUserEcho(text)); err != nil {
		return err
	}

	s.state.Store(int32(Streaming))
	defer s.state.CompareAndSwap(int32(Streaming), int32(Idle))

	sent, err := s.drain(ctx, text)
	span.SetAttributes(attribute.Int("turn.events", sent))
	switch {
	case err == nil:
		turnCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "completed")))
		log.Debug("turn completed", "events", sent, "duration_ms", time.Since(start).Milliseconds())
		return nil
	case ctx.Err() != nil || errors.Is(err, errTransport):
		turnCounter.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", "disconnected")))
		return err
	default:
		turnCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn failed")
		log.Warn("turn failed", "err", err, "events", sent)
		return s.send(ctx, event.NewFailure(FailureMessage))
	}
}

// drain forwards the selected stream. A panic inside the producer is turned
// into an error for this turn.
func (s *Session) drain(ctx context.Context, text string) (sent int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("producer panic: %v", r)
		}
	}()
	for ev, perr := range s.selector.Select(ctx, text) {
		if perr != nil {
			return sent, perr
		}
		if err := s.send(ctx, ev); err != nil {
			return sent, err
		}
		sent++
		if err := s.pace(ctx, ev.Pace()); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

func (s *Session) send(ctx context.Context, ev event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := wire.Encode(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}
	if d, ok := s.conn.(writeDeadliner); ok && s.cfg.WriteTimeout > 0 {
		_ = d.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", errTransport, err)
	}
	frameCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(ev.Kind()))))
	return nil
}

func (s *Session) pace(ctx context.Context, hint time.Duration) error {
	if !s.cfg.HonorPacing || hint <= 0 {
		return nil
	}
	d := time.Duration(float64(hint) * s.cfg.PaceScale)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
