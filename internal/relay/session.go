package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/speakeasy/internal/protocol"
)

const (
	sessionReadLimit = 64 << 10
	outboundQueue    = 32
	writeTimeout     = 10 * time.Second
)

var errRateLimited = errors.New("rate limit exceeded, slow down")

// session is one websocket client. Reads happen on run's goroutine, each
// request is synthesized on its own goroutine, and a single writer drains
// the outbound queue.
type session struct {
	id       string
	server   *Server
	conn     *websocket.Conn
	limiter  *rate.Limiter
	log      *log.Logger
	outbound chan protocol.TTSResponse
	wg       sync.WaitGroup
}

func newSession(s *Server, conn *websocket.Conn) *session {
	id := uuid.NewString()
	return &session{
		id:       id,
		server:   s,
		conn:     conn,
		limiter:  s.newLimiter(),
		log:      s.log.With("session", id[:8]),
		outbound: make(chan protocol.TTSResponse, outboundQueue),
	}
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer s.conn.Close() //nolint:errcheck

	s.log.Debug("Client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, cancel)
	}()

	s.conn.SetReadLimit(sessionReadLimit)
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		req, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.server.metrics.Requests.WithLabelValues("invalid").Inc()
			s.reply(ctx, protocol.NewErrorResponse(req.RequestID, err.Error()))
			continue
		}
		if !s.limiter.Allow() {
			s.server.metrics.Requests.WithLabelValues("rate_limited").Inc()
			s.reply(ctx, protocol.NewErrorResponse(req.RequestID, errRateLimited.Error()))
			continue
		}

		s.wg.Add(1)
		go s.synthesize(ctx, req)
	}

	cancel()
	s.wg.Wait()
	<-writerDone
	s.log.Debug("Client disconnected")
}

func (s *session) synthesize(ctx context.Context, req protocol.TTSRequest) {
	defer s.wg.Done()

	voice, timeout := s.server.settings()
	synthCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := s.server.synth.Synthesize(synthCtx, req.Text, voice)
	s.server.metrics.ObserveSynthesis(time.Since(start))

	if err != nil {
		s.server.metrics.Requests.WithLabelValues("error").Inc()
		s.log.Warn("Synthesis failed", "requestId", req.RequestID, "error", err)
		s.reply(ctx, protocol.NewErrorResponse(req.RequestID, err.Error()))
		return
	}

	s.server.metrics.Requests.WithLabelValues("ok").Inc()
	s.log.Debug("Synthesized", "requestId", req.RequestID, "audio", res.Duration)
	s.reply(ctx, protocol.NewAudioResponse(req.RequestID, res.Audio))
}

func (s *session) reply(ctx context.Context, msg protocol.TTSResponse) {
	select {
	case s.outbound <- msg:
	case <-ctx.Done():
	}
}

func (s *session) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.outbound:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.log.Debug("Write failed", "error", err)
				cancel()
				return
			}
		}
	}
}
