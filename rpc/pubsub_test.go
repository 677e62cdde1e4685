package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode answers accountSubscribe/accountUnsubscribe and lets the test push
// notifications.
type fakeNode struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	conn     *websocket.Conn
	unsubs   []uint64
	burst    []byte
	ready    chan struct{}
	readyOne sync.Once
}

func newFakeNode(t *testing.T) *fakeNode {
	n := &fakeNode{t: t, ready: make(chan struct{})}
	upgrader := websocket.Upgrader{}
	n.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n.mu.Lock()
		n.conn = conn
		n.mu.Unlock()
		for {
			var call struct {
				ID     uint64            `json:"id"`
				Method string            `json:"method"`
				Params []json.RawMessage `json:"params"`
			}
			if err := conn.ReadJSON(&call); err != nil {
				return
			}
			switch call.Method {
			case "accountSubscribe":
				n.write(map[string]interface{}{"jsonrpc": "2.0", "id": call.ID, "result": 7})
				n.mu.Lock()
				burst := n.burst
				n.mu.Unlock()
				if burst != nil {
					n.notify(7, burst)
				}
				n.readyOne.Do(func() { close(n.ready) })
			case "accountUnsubscribe":
				var id uint64
				_ = json.Unmarshal(call.Params[0], &id)
				n.mu.Lock()
				n.unsubs = append(n.unsubs, id)
				n.mu.Unlock()
				n.write(map[string]interface{}{"jsonrpc": "2.0", "id": call.ID, "result": true})
			}
		}
	}))
	t.Cleanup(n.server.Close)
	return n
}

func (n *fakeNode) url() string {
	return "ws" + strings.TrimPrefix(n.server.URL, "http")
}

func (n *fakeNode) write(v interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NoError(n.t, n.conn.WriteJSON(v))
}

func (n *fakeNode) notify(sub uint64, data []byte) {
	n.write(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "accountNotification",
		"params": map[string]interface{}{
			"subscription": sub,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": map[string]interface{}{
					"data":  []string{base64.StdEncoding.EncodeToString(data), "base64"},
					"owner": ledger.SystemProgramID.String(),
				},
			},
		},
	})
}

// notifyOnSubscribe makes the node push data right behind every subscribe ack.
func (n *fakeNode) notifyOnSubscribe(data []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.burst = data
}

func (n *fakeNode) dropConnection() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conn.Close()
}

func (n *fakeNode) unsubscribed() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint64(nil), n.unsubs...)
}

func TestPubSub_SubscribeDeliverUnsubscribe(t *testing.T) {
	node := newFakeNode(t)
	ctx := context.Background()

	ps, err := DialPubSub(ctx, node.url(), "")
	require.NoError(t, err)
	defer ps.Close()

	sub, err := ps.SubscribeAccount(ctx, ledger.NewKeypair().PublicKey())
	require.NoError(t, err)
	<-node.ready

	node.notify(7, []byte("hello"))
	select {
	case data := <-sub.Updates():
		assert.Equal(t, []byte("hello"), data)
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, []uint64{7}, node.unsubscribed())

	// late notifications for a torn down subscription are dropped
	node.notify(7, []byte("late"))
	select {
	case data := <-sub.Updates():
		t.Fatalf("unexpected update after unsubscribe: %q", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPubSub_ConnectionDropFailsSubscription(t *testing.T) {
	node := newFakeNode(t)
	ctx := context.Background()

	ps, err := DialPubSub(ctx, node.url(), CommitmentConfirmed)
	require.NoError(t, err)

	sub, err := ps.SubscribeAccount(ctx, ledger.NewKeypair().PublicKey())
	require.NoError(t, err)

	node.dropConnection()
	select {
	case err := <-sub.Err():
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("no stream error delivered")
	}
	assert.NoError(t, sub.Unsubscribe())

	_, err = ps.SubscribeAccount(ctx, ledger.NewKeypair().PublicKey())
	assert.Error(t, err)
}

func TestPubSub_NotificationRightAfterAck(t *testing.T) {
	for i := 0; i < 20; i++ {
		node := newFakeNode(t)
		node.notifyOnSubscribe([]byte("first"))
		ctx := context.Background()

		ps, err := DialPubSub(ctx, node.url(), CommitmentConfirmed)
		require.NoError(t, err)

		sub, err := ps.SubscribeAccount(ctx, ledger.NewKeypair().PublicKey())
		require.NoError(t, err)

		select {
		case data := <-sub.Updates():
			assert.Equal(t, []byte("first"), data)
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("attempt %d: notification sent with the ack was dropped", i)
		}
		require.NoError(t, sub.Unsubscribe())
		require.NoError(t, ps.Close())
	}
}
