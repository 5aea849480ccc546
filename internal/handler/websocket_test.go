package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory-catalog/internal/model"
)

// waitForClients polls until the handler tracks want clients or the deadline passes.
func waitForClients(t *testing.T, h *WebSocketHandler, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), want)
}

func dialFeed(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return conn
}

func TestNewWebSocketHandler(t *testing.T) {
	// Act
	handler := NewWebSocketHandler(zap.NewNop())

	// Assert
	if handler == nil {
		t.Fatal("NewWebSocketHandler() returned nil")
	}
	if handler.logger == nil {
		t.Error("logger should not be nil")
	}
	if handler.clients == nil {
		t.Error("clients map should be initialized")
	}
}

func TestWebSocketHandler_RegisterRoutes(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(zap.NewNop())
	router := mux.NewRouter()

	// Act
	handler.RegisterRoutes(router)

	// Assert - route exists; the upgrade itself fails on a plain request
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code == http.StatusNotFound {
		t.Error("Route /ws not found")
	}
}

func TestWebSocketHandler_HandleWebSocket_InvalidUpgrade(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rr := httptest.NewRecorder()

	// Act
	handler.HandleWebSocket(rr, req)

	// Assert
	if rr.Code == http.StatusSwitchingProtocols {
		t.Error("Should not upgrade non-WebSocket request")
	}
	if handler.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", handler.ClientCount())
	}
}

func TestWebSocketHandler_Publish_DeliversEvents(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer func() {
		handler.CloseAllConnections()
		server.Close()
	}()

	conn := dialFeed(t, server)
	defer conn.Close()
	waitForClients(t, handler, 1)

	item := model.Item{Name: "Screwdriver", Price: 4.5, Count: 15, ID: 3, Category: model.CategoryTools}

	// Act
	handler.Publish(model.NewItemEvent(model.EventItemCreated, item, nil))

	// Assert
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error: %v", err)
	}
	var event model.ItemEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if event.Type != model.EventItemCreated {
		t.Errorf("event type = %s, want %s", event.Type, model.EventItemCreated)
	}
	if event.Item != item {
		t.Errorf("event item = %+v, want %+v", event.Item, item)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestWebSocketHandler_Publish_MultipleClients(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer func() {
		handler.CloseAllConnections()
		server.Close()
	}()

	numClients := 3
	conns := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conns[i] = dialFeed(t, server)
		defer conns[i].Close()
	}
	waitForClients(t, handler, numClients)

	item := model.Item{Name: "Nails", Price: 1.99, Count: 100, ID: 2, Category: model.CategoryConsumables}

	// Act
	handler.Publish(model.NewItemEvent(model.EventItemDeleted, item, nil))

	// Assert
	for i, conn := range conns {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event model.ItemEvent
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("client %d: ReadJSON() error: %v", i, err)
		}
		if event.Type != model.EventItemDeleted || event.Item.ID != 2 {
			t.Errorf("client %d: event = %+v, want deletion of item 2", i, event)
		}
	}
}

func TestWebSocketHandler_Publish_NoClients(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(zap.NewNop())

	// Act - must not block or panic
	handler.Publish(model.NewItemEvent(model.EventItemCreated, model.Item{ID: 1, Category: model.CategoryTools}, nil))

	// Assert
	if handler.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", handler.ClientCount())
	}
}

func TestWebSocketHandler_ClientDisconnect(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	conn := dialFeed(t, server)
	waitForClients(t, handler, 1)

	// Act
	conn.Close()

	// Assert
	waitForClients(t, handler, 0)
}

func TestWebSocketHandler_CloseAllConnections(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	numClients := 3
	conns := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conns[i] = dialFeed(t, server)
	}
	waitForClients(t, handler, numClients)

	// Act
	handler.CloseAllConnections()

	// Assert
	if handler.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after CloseAllConnections(), want 0", handler.ClientCount())
	}
	for i, conn := range conns {
		_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
			t.Logf("client %d: drained a message before close", i)
		}
		conn.Close()
	}
}

func TestWebSocketHandler_WritePump_DropsClientOnWriteFailure(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(zap.NewNop())
	upgraded := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := handler.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade() error: %v", err)
			return
		}
		upgraded <- conn
	}))
	defer server.Close()

	peer := dialFeed(t, server)
	defer peer.Close()

	var serverConn *websocket.Conn
	select {
	case serverConn = <-upgraded:
	case <-time.After(2 * time.Second):
		t.Fatal("server side of the connection was not upgraded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &wsClient{
		conn:   serverConn,
		send:   make(chan model.ItemEvent, 1),
		cancel: cancel,
	}
	handler.mu.Lock()
	handler.clients[serverConn] = client
	handler.mu.Unlock()

	// Writes on a closed transport fail.
	if err := serverConn.UnderlyingConn().Close(); err != nil {
		t.Fatalf("closing transport: %v", err)
	}
	client.send <- model.NewItemEvent(model.EventItemCreated, model.Item{ID: 3, Name: "Screwdriver"}, nil)

	// Act
	done := make(chan struct{})
	go func() {
		handler.writePump(ctx, client)
		close(done)
	}()

	// Assert
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writePump did not return after a failed write")
	}
	if ctx.Err() == nil {
		t.Error("client context should be cancelled after a failed write")
	}
	if got := handler.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0 after a failed write", got)
	}

	handler.Publish(model.NewItemEvent(model.EventItemDeleted, model.Item{ID: 3}, nil))
	if got := len(client.send); got != 0 {
		t.Errorf("dropped client queue holds %d events, want 0", got)
	}
}
