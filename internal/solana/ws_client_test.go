package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newLogsServer runs handle for every websocket connection and returns the
// ws:// URL of the server.
func newLogsServer(t *testing.T, handle func(c *websocket.Conn, n int)) string {
	t.Helper()

	var mu sync.Mutex
	conns := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		mu.Lock()
		conns++
		n := conns
		mu.Unlock()
		handle(c, n)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// drain keeps the connection open until the client goes away.
func drain(c *websocket.Conn) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func notifyLogs(c *websocket.Conn, subID, slot int64, value wsLogsValue) error {
	return c.WriteJSON(wsNotification{
		JSONRPC: "2.0",
		Method:  "logsNotification",
		Params: &wsNotificationParams{
			Subscription: subID,
			Result:       wsNotificationResult{Context: &wsContext{Slot: slot}, Value: value},
		},
	})
}

func TestWSClient_Lifecycle(t *testing.T) {
	url := newLogsServer(t, func(c *websocket.Conn, _ int) { drain(c) })

	cfg := DefaultWSConfig()
	cfg.PingInterval = 5 * time.Second
	cfg.Logger = zap.NewNop()
	client, err := NewWSClient(context.Background(), url, &cfg)
	require.NoError(t, err)

	assert.False(t, client.closed.Load())
	assert.Equal(t, 5*time.Second, client.config.PingInterval)
	assert.Equal(t, CommitmentConfirmed, client.config.Commitment)

	require.NoError(t, client.Close())
	assert.True(t, client.closed.Load())
	assert.NoError(t, client.Close(), "second Close")

	_, err = client.SubscribeLogs(context.Background(), LogsFilter{Mention: "mint"})
	assert.Error(t, err, "subscribe after close")
}

func TestWSClient_SubscribeLogs(t *testing.T) {
	const mint = "CurveMint1111111111111111111111111111111pump"
	reqs := make(chan wsRequest, 1)

	url := newLogsServer(t, func(c *websocket.Conn, _ int) {
		var req wsRequest
		if err := c.ReadJSON(&req); err != nil {
			return
		}
		reqs <- req
		if err := c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: 12345}); err != nil {
			return
		}
		// let the client register the subscription id
		time.Sleep(50 * time.Millisecond)

		notifyLogs(c, 12345, 99, wsLogsValue{
			Signature: "reverted",
			Logs:      []string{"Program data: xyz"},
			Err:       map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
		})
		notifyLogs(c, 12345, 100, wsLogsValue{
			Signature: "landed",
			Logs:      []string{"Program log: Instruction: Buy", "Program data: abc"},
		})
		drain(c)
	})

	client, err := NewWSClient(context.Background(), url, nil)
	require.NoError(t, err)
	defer client.Close()

	ch, err := client.SubscribeLogs(context.Background(), LogsFilter{Mention: mint})
	require.NoError(t, err)

	req := <-reqs
	assert.Equal(t, "logsSubscribe", req.Method)
	require.Len(t, req.Params, 2)
	filter, ok := req.Params[0].(map[string]interface{})
	require.True(t, ok, "filter param is an object")
	assert.Equal(t, []interface{}{mint}, filter["mentions"])

	got := make([]LogNotification, 0, 2)
	for len(got) < 2 {
		select {
		case n := <-ch:
			got = append(got, n)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout after %d notifications", len(got))
		}
	}

	if !got[0].Failed() || got[0].Signature != "reverted" {
		t.Errorf("first notification = %+v, want failed 'reverted'", got[0])
	}
	if got[1].Failed() {
		t.Errorf("landed transaction reported as failed: %v", got[1].Err)
	}
	assert.Equal(t, int64(100), got[1].Slot)
	assert.Len(t, got[1].Logs, 2)
}

func TestWSClient_SubscribeAllWhenNoMention(t *testing.T) {
	reqs := make(chan wsRequest, 1)
	url := newLogsServer(t, func(c *websocket.Conn, _ int) {
		var req wsRequest
		if err := c.ReadJSON(&req); err != nil {
			return
		}
		reqs <- req
		c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: 1})
		drain(c)
	})

	client, err := NewWSClient(context.Background(), url, nil)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.SubscribeLogs(context.Background(), LogsFilter{})
	require.NoError(t, err)

	req := <-reqs
	filter := req.Params[0].(map[string]interface{})
	_, all := filter["all"]
	assert.True(t, all)
	assert.NotContains(t, filter, "mentions")
}

func TestWSClient_ResubscribesAfterReconnect(t *testing.T) {
	url := newLogsServer(t, func(c *websocket.Conn, n int) {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			return
		}
		subID := int64(100 + n)
		c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: subID})

		if n == 1 {
			// drop the first connection right after subscribing
			return
		}
		notifyLogs(c, subID, 7, wsLogsValue{Signature: "after-reconnect"})
		drain(c)
	})

	cfg := DefaultWSConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 50 * time.Millisecond
	cfg.Logger = zap.NewNop()

	client, err := NewWSClient(context.Background(), url, &cfg)
	require.NoError(t, err)
	defer client.Close()

	ch, err := client.SubscribeLogs(context.Background(), LogsFilter{Mention: "prog"})
	require.NoError(t, err)

	select {
	case n := <-ch:
		require.Equal(t, "after-reconnect", n.Signature)
		require.Equal(t, int64(7), n.Slot)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for notification after reconnect")
	}
}
