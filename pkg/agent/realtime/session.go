// Package realtime is a WebSocket client for the provider's realtime voice
// API. The provider owns speech recognition, synthesis, voice activity
// detection and the model loop; this package only configures the session,
// streams audio both ways, dispatches tool calls and keeps the conversation
// history.
package realtime

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const defaultConnectTimeout = 15 * time.Second

// Tool is a named capability the model may call during the conversation.
// Handlers receive the raw JSON arguments and return the spoken reply.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     func(ctx context.Context, args string) (string, error)
}

// Config describes one realtime session.
type Config struct {
	// URL is the websocket endpoint, without the model query parameter.
	URL    string
	APIKey string
	Model  string

	Voice                 string
	Instructions          string
	TranscriptionModel    string
	TranscriptionLanguage string
	TurnDetection         *TurnDetection
	Tools                 []Tool

	Logger *slog.Logger
}

// Session is a live realtime conversation. One session serves one
// conversation; it is not reusable after Close.
type Session struct {
	conn   *websocket.Conn
	logger *slog.Logger
	tools  map[string]Tool

	audioOut chan []byte
	done     chan struct{}

	history history

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

// Connect dials the realtime endpoint, waits for the session to be created
// and applies the session configuration. A failure here is fatal to the job:
// nothing useful can happen without a live session.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	q := endpoint.Query()
	q.Set("model", cfg.Model)
	endpoint.RawQuery = q.Encode()

	headers := make(http.Header)
	if cfg.APIKey != "" {
		headers.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.DefaultDialer
	if dialer == nil {
		dialer = &websocket.Dialer{}
	}

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(dialCtx, endpoint.String(), headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime dial failed: %w", err)
	}

	// The server announces session.created as its first frame.
	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	if err := waitForSessionCreated(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Time{})

	s := &Session{
		conn:     conn,
		logger:   logger,
		tools:    make(map[string]Tool, len(cfg.Tools)),
		audioOut: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	for _, tool := range cfg.Tools {
		s.tools[tool.Name] = tool
	}

	if err := s.sendJSON(clientSessionUpdate{Type: "session.update", Session: buildSessionConfig(cfg)}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send session.update: %w", err)
	}

	go s.readLoop()
	return s, nil
}

func buildSessionConfig(cfg Config) SessionConfig {
	sc := SessionConfig{
		Modalities:        []string{"audio", "text"},
		Instructions:      cfg.Instructions,
		Voice:             cfg.Voice,
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
		TurnDetection:     cfg.TurnDetection,
	}
	if cfg.TranscriptionModel != "" {
		sc.InputAudioTranscription = &TranscriptionConfig{
			Model:    cfg.TranscriptionModel,
			Language: cfg.TranscriptionLanguage,
		}
	}
	if len(cfg.Tools) > 0 {
		sc.ToolChoice = "auto"
		for _, tool := range cfg.Tools {
			sc.Tools = append(sc.Tools, ToolDefinition{
				Type:        "function",
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			})
		}
	}
	return sc
}

func waitForSessionCreated(conn *websocket.Conn) error {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read session.created: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		env, err := decodeServerFrame[serverEnvelope](data)
		if err != nil {
			return fmt.Errorf("decode first realtime frame: %w", err)
		}
		switch env.Type {
		case "session.created":
			return nil
		case "error":
			frame, _ := decodeServerFrame[serverError](data)
			return fmt.Errorf("realtime session rejected: %s", frame.Error.Message)
		}
	}
}

// SendAudio appends one PCM16 frame to the provider's input buffer.
// Commit and turn taking are handled by provider-side VAD.
func (s *Session) SendAudio(pcm []byte) error {
	return s.sendJSON(clientAudioAppend{
		Type:  "input_audio_buffer.append",
		Audio: base64.StdEncoding.EncodeToString(pcm),
	})
}

// GenerateReply asks the session to produce a spoken turn, optionally guided
// by per-turn instructions (used for the welcome message).
func (s *Session) GenerateReply(instructions string) error {
	msg := clientResponseCreate{Type: "response.create"}
	if instructions != "" {
		msg.Response = &responseConfig{Instructions: instructions}
	}
	return s.sendJSON(msg)
}

// AudioOut yields assistant PCM16 audio deltas. The channel is closed when
// the session ends.
func (s *Session) AudioOut() <-chan []byte {
	return s.audioOut
}

// History returns a snapshot of the committed conversation turns.
func (s *Session) History() []Turn {
	return s.history.snapshot()
}

// Done is closed when the read loop has terminated.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal session error, if any, once the session has ended.
func (s *Session) Err() error {
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close closes the websocket session and waits for the read loop to drain.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

func (s *Session) sendJSON(v any) error {
	if s.closed.Load() {
		return fmt.Errorf("realtime session is closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *Session) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	defer close(s.audioOut)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || s.closed.Load() {
				return
			}
			s.setErr(err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		env, err := decodeServerFrame[serverEnvelope](data)
		if err != nil {
			s.logger.Warn("undecodable realtime frame", "error", err)
			continue
		}

		switch env.Type {
		case "error":
			frame, err := decodeServerFrame[serverError](data)
			if err != nil {
				continue
			}
			// Provider errors are logged but do not tear the session down;
			// the provider keeps the conversation alive after most of them.
			s.logger.Error("realtime error event",
				"code", frame.Error.Code,
				"message", frame.Error.Message,
			)
		case "conversation.item.input_audio_transcription.completed":
			frame, err := decodeServerFrame[serverTranscriptionCompleted](data)
			if err != nil {
				continue
			}
			s.history.append("user", frame.Transcript)
			s.logger.Debug("user speech committed", "transcript", frame.Transcript)
		case "response.audio.delta":
			frame, err := decodeServerFrame[serverAudioDelta](data)
			if err != nil {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(frame.Delta)
			if err != nil {
				s.logger.Warn("undecodable audio delta", "error", err)
				continue
			}
			s.emitAudio(pcm)
		case "response.audio_transcript.done":
			frame, err := decodeServerFrame[serverAudioTranscriptDone](data)
			if err != nil {
				continue
			}
			s.history.append("assistant", frame.Transcript)
		case "response.function_call_arguments.done":
			frame, err := decodeServerFrame[serverFunctionCallDone](data)
			if err != nil {
				continue
			}
			// Tool calls run concurrently with the speech loop; handlers are
			// simple state actions and never fail the conversation.
			go s.dispatchTool(frame)
		case "input_audio_buffer.speech_started",
			"input_audio_buffer.speech_stopped",
			"session.updated",
			"response.created",
			"response.done":
			// Lifecycle notifications; nothing to do.
		default:
			s.logger.Debug("unhandled realtime event", "type", env.Type)
		}
	}
}

func (s *Session) emitAudio(pcm []byte) {
	select {
	case s.audioOut <- pcm:
	default:
		// Drop rather than stall the read loop if playback lags behind.
	}
}

func (s *Session) dispatchTool(call serverFunctionCallDone) {
	tool, ok := s.tools[call.Name]
	if !ok {
		s.logger.Warn("model called unknown tool", "tool", call.Name)
		return
	}

	output, err := tool.Handler(context.Background(), call.Arguments)
	if err != nil {
		s.logger.Error("tool handler failed", "tool", call.Name, "error", err)
		output = "Sorry, I could not do that right now."
	}

	if err := s.sendJSON(clientItemCreate{
		Type: "conversation.item.create",
		Item: functionCallItem{Type: "function_call_output", CallID: call.CallID, Output: output},
	}); err != nil {
		s.logger.Warn("send tool output", "tool", call.Name, "error", err)
		return
	}
	if err := s.GenerateReply(""); err != nil {
		s.logger.Warn("request reply after tool call", "tool", call.Name, "error", err)
	}
}
