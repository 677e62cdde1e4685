package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrPubSubClosed = errors.New("pubsub connection closed")

// PubSub is a websocket client for account change notifications.
type PubSub struct {
	commitment string
	conn       *websocket.Conn

	writeMu sync.Mutex

	mu          sync.Mutex
	nextID      uint64
	pending     map[uint64]chan response
	subscribing map[uint64]*accountSubscription
	subs        map[uint64]*accountSubscription
	err         error
	done        chan struct{}
}

func DialPubSub(ctx context.Context, url, commitment string) (*PubSub, error) {
	if commitment == "" {
		commitment = CommitmentConfirmed
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "websocket dial")
	}

	p := &PubSub{
		commitment: commitment,
		conn:       conn,
		pending:     make(map[uint64]chan response),
		subscribing: make(map[uint64]*accountSubscription),
		subs:        make(map[uint64]*accountSubscription),
		done:        make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

type notification struct {
	Method string `json:"method"`
	Params struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Value *accountValue `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (p *PubSub) readLoop() {
	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			p.shutdown(errors.Wrap(err, "websocket read"))
			return
		}

		var head struct {
			ID     *uint64 `json:"id"`
			Method string  `json:"method"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			log.Warnf("dropping malformed pubsub message: %v", err)
			continue
		}

		if head.ID != nil {
			var resp response
			if err := json.Unmarshal(raw, &resp); err != nil {
				log.Warnf("dropping malformed pubsub response: %v", err)
				continue
			}
			p.mu.Lock()
			ch, ok := p.pending[resp.ID]
			delete(p.pending, resp.ID)
			p.register(resp)
			p.mu.Unlock()
			if ok {
				ch <- resp
			}
			continue
		}

		if head.Method != "accountNotification" {
			continue
		}
		var n notification
		if err := json.Unmarshal(raw, &n); err != nil {
			log.Warnf("dropping malformed account notification: %v", err)
			continue
		}
		p.mu.Lock()
		sub, ok := p.subs[n.Params.Subscription]
		p.mu.Unlock()
		if !ok || n.Params.Result.Value == nil || len(n.Params.Result.Value.Data) == 0 {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(n.Params.Result.Value.Data[0])
		if err != nil {
			log.Warnf("dropping account notification with bad data: %v", err)
			continue
		}
		sub.deliver(data)
	}
}

// register routes an accountSubscribe ack to its subscription before the next
// frame is read, so a notification sent right after the ack is not lost.
// Callers hold p.mu.
func (p *PubSub) register(resp response) {
	sub, ok := p.subscribing[resp.ID]
	if !ok {
		return
	}
	delete(p.subscribing, resp.ID)
	if resp.Error != nil {
		return
	}
	if err := json.Unmarshal(resp.Result, &sub.id); err != nil {
		log.Warnf("dropping accountSubscribe ack with bad subscription id: %v", err)
		return
	}
	sub.registered = true
	p.subs[sub.id] = sub
}

// shutdown fails every pending call and live subscription.
func (p *PubSub) shutdown(err error) {
	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	close(p.done)
	pending := p.pending
	subs := p.subs
	p.pending = make(map[uint64]chan response)
	p.subscribing = make(map[uint64]*accountSubscription)
	p.subs = make(map[uint64]*accountSubscription)
	p.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	for _, s := range subs {
		s.fail(err)
	}
}

func (p *PubSub) request(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	return p.call(ctx, method, params, nil)
}

// call sends one request and waits for its response. A non-nil sub is
// registered by the read loop when the ack arrives.
func (p *PubSub) call(ctx context.Context, method string, params []interface{}, sub *accountSubscription) (json.RawMessage, error) {
	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return nil, p.err
	}
	p.nextID++
	id := p.nextID
	ch := make(chan response, 1)
	p.pending[id] = ch
	if sub != nil {
		p.subscribing[id] = sub
	}
	p.mu.Unlock()

	p.writeMu.Lock()
	err := p.conn.WriteJSON(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	p.writeMu.Unlock()
	if err != nil {
		p.mu.Lock()
		delete(p.pending, id)
		delete(p.subscribing, id)
		p.mu.Unlock()
		return nil, errors.Wrapf(err, "could not send %s", method)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrPubSubClosed
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		p.mu.Lock()
		delete(p.pending, id)
		delete(p.subscribing, id)
		if sub != nil && sub.registered {
			delete(p.subs, sub.id)
		}
		p.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (p *PubSub) SubscribeAccount(ctx context.Context, address ledger.Pubkey) (ledger.Subscription, error) {
	params := []interface{}{
		address.String(),
		map[string]string{"encoding": "base64", "commitment": p.commitment},
	}
	sub := &accountSubscription{
		pubsub:  p,
		address: address,
		updates: make(chan []byte, 16),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	if _, err := p.call(ctx, "accountSubscribe", params, sub); err != nil {
		return nil, errors.Wrapf(err, "could not subscribe to %s", address)
	}
	p.mu.Lock()
	registered := sub.registered
	p.mu.Unlock()
	if !registered {
		return nil, errors.New("could not decode subscription id")
	}

	log.WithFields(log.Fields{"account": address.String(), "subscription": sub.id}).Debug("subscribed to account")
	return sub, nil
}

// Close tears down the connection; live subscriptions receive ErrPubSubClosed.
func (p *PubSub) Close() error {
	p.writeMu.Lock()
	_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	p.writeMu.Unlock()
	err := p.conn.Close()
	p.shutdown(ErrPubSubClosed)
	return err
}

type accountSubscription struct {
	pubsub     *PubSub
	id         uint64
	registered bool
	address    ledger.Pubkey

	updates chan []byte
	errs    chan error
	done    chan struct{}

	once     sync.Once
	unsubErr error
}

func (s *accountSubscription) Updates() <-chan []byte { return s.updates }

func (s *accountSubscription) Err() <-chan error { return s.errs }

func (s *accountSubscription) deliver(data []byte) {
	select {
	case s.updates <- data:
	case <-s.done:
	}
}

func (s *accountSubscription) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Unsubscribe stops delivery immediately and tells the node; later calls are
// no-ops returning the first result.
func (s *accountSubscription) Unsubscribe() error {
	s.once.Do(func() {
		p := s.pubsub
		p.mu.Lock()
		delete(p.subs, s.id)
		closed := p.err != nil
		p.mu.Unlock()
		close(s.done)

		if closed {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := p.request(ctx, "accountUnsubscribe", []interface{}{s.id}); err != nil {
			s.unsubErr = fmt.Errorf("could not unsubscribe %d from %s: %v", s.id, s.address, err)
		}
	})
	return s.unsubErr
}
