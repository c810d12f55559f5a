package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/outsquaremd/medidash/capture"
	"github.com/outsquaremd/medidash/speech"
)

// bridgeMessage is one outbound frame on the transcription bridge.
type bridgeMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
	Turn       string `json:"turn,omitempty"`
	Formatted  bool   `json:"formatted,omitempty"`
	Error      string `json:"error,omitempty"`
}

// bridgeControl is one inbound text frame. Binary frames carry PCM audio and
// have no envelope.
type bridgeControl struct {
	Type string `json:"type"`
}

// transcribeStream bridges one browser WebSocket to the realtime recognition
// service: inbound binary frames are 16-bit PCM audio, outbound text frames
// are transcript updates. A session token with the transcribe scope is
// required; upstream credentials never reach the client.
func (s *Server) transcribeStream(c *gin.Context) {
	if s.cfg.Dial == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live transcription not configured"})
		return
	}
	if !s.authorizeBridge(c) {
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	source := capture.NewPushSource()
	mic, err := capture.New(capture.Config{
		SampleRate: s.cfg.SampleRate,
		Source:     source,
	})
	if err != nil {
		slog.Error("create capture", "error", err)
		return
	}

	session, err := speech.NewSession(speech.SessionConfig{
		Dial:    s.cfg.Dial,
		Source:  mic,
		Encoder: speech.NewFrameEncoder(s.cfg.Framing, s.cfg.SampleRate),
	})
	if err != nil {
		slog.Error("create session", "error", err)
		return
	}
	defer session.Stop()

	var writeMu sync.Mutex
	write := func(msg bridgeMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	if err := session.Start(c.Request.Context()); err != nil {
		slog.Error("start transcription session", "error", err)
		_ = write(bridgeMessage{Type: "Error", Error: session.Err()})
		return
	}
	_ = write(bridgeMessage{Type: "Begin"})

	done := make(chan struct{})
	go s.forwardTurns(session, write, done)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		switch msgType {
		case websocket.BinaryMessage:
			source.Push(speech.DecodePCM16(data))
		case websocket.TextMessage:
			var ctl bridgeControl
			if err := json.Unmarshal(data, &ctl); err != nil {
				slog.Debug("malformed bridge control frame", "error", err)
				continue
			}
			if ctl.Type == "Terminate" {
				session.Stop()
				_ = write(bridgeMessage{
					Type:       "Termination",
					Transcript: session.TranscriptText(),
				})
				close(done)
				return
			}
		}
	}
	close(done)
}

// forwardTurns relays transcript updates to the browser until the connection
// ends. A session that dies upstream is reported once, then the relay stops.
func (s *Server) forwardTurns(session *speech.Session, write func(bridgeMessage) error, done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case update := <-session.Turns():
			msg := bridgeMessage{
				Type:       "Turn",
				Transcript: update.Transcript,
				Turn:       update.Turn,
				Formatted:  update.Formatted,
			}
			if err := write(msg); err != nil {
				return
			}
		case <-ticker.C:
			if !session.IsRecording() {
				if msg := session.Err(); msg != "" {
					_ = write(bridgeMessage{Type: "Error", Error: msg})
				}
				return
			}
		}
	}
}

// authorizeBridge checks the session token, from the Authorization header or
// the token query parameter. The query form exists because browser WebSocket
// clients cannot set headers; these tokens are short-lived and scoped, unlike
// an account API key.
func (s *Server) authorizeBridge(c *gin.Context) bool {
	token := c.Query("token")
	if auth := c.GetHeader("Authorization"); auth != "" {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session token required"})
		return false
	}
	if _, err := s.cfg.Tokens.Validate(token, ScopeTranscribe); err != nil {
		slog.Debug("rejected bridge token", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
		return false
	}
	return true
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// transcribeFile accepts a whole recording as a multipart upload and returns
// its transcript from a batch provider.
func (s *Server) transcribeFile(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return
	}

	name := c.PostForm("provider")
	if name == "" {
		name = s.cfg.DefaultTranscriber
	}
	provider := s.cfg.Transcribers.Get(name)
	if provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no batch transcription provider configured"})
		return
	}

	samples, rate, err := speech.DecodeWAV(data, s.cfg.SampleRate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decode audio: " + err.Error()})
		return
	}

	result, err := provider.Transcribe(c.Request.Context(), samples, rate)
	if err != nil {
		slog.Error("batch transcription failed", "provider", provider.Name(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "transcription failed"})
		return
	}

	resp := gin.H{"provider": provider.Name(), "transcript": result.Text}
	if result.Text == "" && result.Raw != "" {
		resp["raw"] = result.Raw
	}
	c.JSON(http.StatusOK, resp)
}
