package network

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestServerAcceptsSessionAndRoundTripsMessages(t *testing.T) {
	srv := NewServer("")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/inspect"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	select {
	case sess := <-srv.Accept():
		if sess.ID == "" {
			t.Fatalf("session has no ID")
		}
		sess.Events <- Event{Type: "instruction", Line: 3}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(data), `"line":3`) {
		t.Fatalf("unexpected event payload: %s", data)
	}

	if err := conn.WriteJSON(Command{Type: "continue"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}
