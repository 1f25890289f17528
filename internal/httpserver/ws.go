package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Ekow24/Digi-Francais/internal/session"
	"github.com/Ekow24/Digi-Francais/internal/transcript"
)

// wsMessage is the JSON frame exchanged with the browser client.
// Client types: "recognition", "listening", "language", "speak", "quiz",
// "select", "reset", "bye". Server types: "state", "audio", "celebrate",
// "error".
type wsMessage struct {
	Type string `json:"type"`
	// recognition
	Final   []string `json:"final,omitempty"`
	Interim string   `json:"interim,omitempty"`
	// listening / language / select
	Listening *bool  `json:"listening,omitempty"`
	Language  string `json:"language,omitempty"`
	Index     *int   `json:"index,omitempty"`
	// server -> client
	State      *session.Snapshot `json:"state,omitempty"`
	Audio      string            `json:"audio,omitempty"` // base64 s16le PCM frame
	SampleRate int               `json:"sampleRate,omitempty"`
	Error      string            `json:"error,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		// Allow any origin for demo use; restrict in production
		return true
	},
}

// wsConn serializes writes; state emits, audio frames and errors arrive from
// different goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteJSON(v)
}

// wsSink delivers paced PCM frames to the client.
type wsSink struct {
	c *wsConn
}

func (s *wsSink) WritePCM(pcm []byte, sampleRate int) {
	msg := wsMessage{
		Type:       "audio",
		Audio:      base64.StdEncoding.EncodeToString(pcm),
		SampleRate: sampleRate,
	}
	if err := s.c.writeJSON(msg); err != nil {
		log.Printf("ws: audio write error: %v", err)
	}
}

// handleSession upgrades to WebSocket and runs one learner session for the
// lifetime of the connection. Session state lives only in memory and dies
// with the connection.
func (s *Server) handleSession(c echo.Context) error {
	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return nil
	}
	defer func() { _ = conn.Close() }()

	wc := &wsConn{conn: conn}
	id := uuid.NewString()
	log.Printf("ws session %s: connected", id)

	if !s.deps.Configured {
		_ = wc.writeJSON(wsMessage{Type: "error", Error: "service not configured: GEMINI_API_KEY is missing"})
		return nil
	}

	sess := session.New(session.Config{
		Translator:    s.deps.Translator,
		Synthesizer:   s.deps.Synthesizer,
		QuizGenerator: s.deps.Quizzes,
		Sink:          &wsSink{c: wc},
		Debounce:      s.cfg.TranslateDebounce,
		Events: session.Events{
			OnState: func(snap session.Snapshot) {
				_ = wc.writeJSON(wsMessage{Type: "state", State: &snap})
			},
			OnCelebrate: func() {
				_ = wc.writeJSON(wsMessage{Type: "celebrate"})
			},
		},
	})
	defer sess.Close()
	if s.cfg.DefaultLanguage != "" {
		if err := sess.SetLanguage(s.cfg.DefaultLanguage); err != nil {
			log.Printf("ws session %s: default language: %v", id, err)
		}
	}

	for {
		mt, data, rerr := conn.ReadMessage()
		if rerr != nil {
			log.Printf("ws session %s: closed: %v", id, rerr)
			return nil
		}
		if mt != websocket.TextMessage {
			continue
		}
		var m wsMessage
		if jerr := json.Unmarshal(data, &m); jerr != nil {
			_ = wc.writeJSON(wsMessage{Type: "error", Error: "invalid frame"})
			continue
		}
		switch strings.ToLower(m.Type) {
		case "recognition":
			sess.OnRecognition(transcript.Event{Final: m.Final, Interim: m.Interim})
		case "listening":
			if m.Listening != nil {
				sess.SetListening(*m.Listening)
			}
		case "language":
			if err := sess.SetLanguage(m.Language); err != nil {
				_ = wc.writeJSON(wsMessage{Type: "error", Error: err.Error()})
			}
		case "speak":
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()
				if err := sess.Speak(ctx); err != nil {
					_ = wc.writeJSON(wsMessage{Type: "error", Error: err.Error()})
				}
			}()
		case "quiz":
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := sess.GenerateQuiz(ctx); err != nil {
					_ = wc.writeJSON(wsMessage{Type: "error", Error: err.Error()})
				}
			}()
		case "select":
			if m.Index != nil {
				sess.SelectOption(*m.Index)
			}
		case "reset":
			sess.Reset()
		case "bye":
			return nil
		default:
			_ = wc.writeJSON(wsMessage{Type: "error", Error: "unknown frame type"})
		}
	}
}
