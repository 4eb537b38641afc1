// Package network provides the WebSocket transport for Alto's instruction
// inspector (internal/debugger): a single long-lived connection that streams
// OnInstruction/OnException events to an attached client and reads back
// step/continue/breakpoint commands, grounded on the teacher's
// WebSocketServer client/upgrade shape (websocket_server.go) but trimmed to
// the one-session-at-a-time case a step debugger needs — no client map, no
// broadcast, no server-to-server connect.
package network

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one message pushed to an attached inspector client.
type Event struct {
	Type     string `json:"type"` // "instruction", "paused", "exception"
	Line     int    `json:"line,omitempty"`
	Function string `json:"function,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Command is one message read from an attached inspector client.
type Command struct {
	Type string `json:"type"` // "continue", "step", "break", "clear", "quit"
	Line int    `json:"line,omitempty"`
}

// Session pairs a websocket connection with the Events/Commands channels an
// internal/debugger.Inspector drives. ID identifies the session; cmd/alto
// prints it when a client attaches.
type Session struct {
	ID       string
	Events   chan Event
	Commands chan Command

	conn     *websocket.Conn
	closeOne sync.Once
}

// Close shuts down the underlying connection. Safe to call more than once.
func (s *Session) Close() {
	s.closeOne.Do(func() {
		s.conn.Close()
	})
}

func (s *Session) pumpOut() {
	for ev := range s.Events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (s *Session) pumpIn() {
	defer close(s.Commands)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		s.Commands <- cmd
	}
}

var upgrader = websocket.Upgrader{
	// The inspector is a developer tool, not a public endpoint; the host
	// decides whether to expose it beyond localhost.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server upgrades HTTP connections on "/inspect" to WebSocket inspector
// sessions. Handler is split out from the listen loop so tests can serve it
// with httptest.NewServer instead of binding a real port.
type Server struct {
	Addr     string
	sessions chan *Session
}

// NewServer builds a Server that will listen on addr once Listen is called.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, sessions: make(chan *Session, 1)}
}

// Handler returns the HTTP handler that performs the WebSocket upgrade. Each
// accepted connection is pushed to the channel returned by Accept.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sess := &Session{
			ID:       uuid.NewString(),
			Events:   make(chan Event, 64),
			Commands: make(chan Command, 16),
			conn:     conn,
		}
		go sess.pumpOut()
		go sess.pumpIn()
		s.sessions <- sess
	})
	return mux
}

// Accept returns the channel that receives one *Session per accepted
// connection.
func (s *Server) Accept() <-chan *Session {
	return s.sessions
}

// Listen starts an HTTP listener bound to s.Addr serving Handler, blocking
// until it fails. Run it in a goroutine.
func (s *Server) Listen() error {
	return http.ListenAndServe(s.Addr, s.Handler())
}
