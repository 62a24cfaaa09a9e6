package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/school"
)

const heartbeatInterval = 30 * time.Second

type (
	// Realtime is a websocket client of the realtime server. One connection carries every channel.
	Realtime struct {
		mu       sync.Mutex
		url      string
		logger   core.Logger
		conn     *websocket.Conn
		channels map[string]*channel
		ref      int
		lastSub  int
		done     chan struct{}
	}

	// PostgresChanges selects row changes of one table.
	PostgresChanges struct {
		Event  string // INSERT, UPDATE, DELETE or *
		Schema string
		Table  string
		Filter string // e.g. recipient_id=eq.42
	}

	// channel is joined once per topic and fans every change out to its handlers.
	channel struct {
		topic    string
		joinRef  string
		handlers map[int]school.ChangeHandler
	}

	subscriber struct {
		rt *Realtime
		ch *channel
		id int
	}

	envelope struct {
		Topic   string          `json:"topic"`
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
		Ref     string          `json:"ref"`
		JoinRef string          `json:"join_ref,omitempty"`
	}

	changePayload struct {
		Type   string          `json:"type"`
		Table  string          `json:"table"`
		Record json.RawMessage `json:"record"`
		Data   *changePayload  `json:"data"`
	}
)

func NewRealtime(conf *core.Config, logger core.Logger) *Realtime {
	wsURL := strings.TrimSuffix(conf.Supabase.URL, "/")
	switch {
	case strings.HasPrefix(wsURL, "https"):
		wsURL = "wss" + strings.TrimPrefix(wsURL, "https")
	case strings.HasPrefix(wsURL, "http"):
		wsURL = "ws" + strings.TrimPrefix(wsURL, "http")
	}
	q := url.Values{"apikey": {conf.Supabase.APIKey}, "vsn": {"1.0.0"}}
	return &Realtime{
		url:      wsURL + "/realtime/v1/websocket?" + q.Encode(),
		logger:   logger,
		channels: make(map[string]*channel),
	}
}

// Connect dials the server unless already connected.
func (rt *Realtime) Connect(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.connect(ctx)
}

func (rt *Realtime) connect(ctx context.Context) error {
	if rt.conn != nil {
		return nil
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, rt.url, nil)
	if err != nil {
		return errors.Wrap(err, "dialing realtime server")
	}
	rt.conn = conn
	rt.done = make(chan struct{})
	go rt.readLoop(conn, rt.done)
	go rt.heartbeat(rt.done)
	return nil
}

func (rt *Realtime) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.conn == nil {
		return nil
	}
	close(rt.done)
	err := rt.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = rt.conn.Close()
	rt.conn = nil
	rt.channels = make(map[string]*channel)
	return errors.Wrap(err, "closing realtime connection")
}

// nextRef must be called with mu held.
func (rt *Realtime) nextRef() string {
	rt.ref++
	return strconv.Itoa(rt.ref)
}

// send must be called with mu held.
func (rt *Realtime) send(msg envelope) error {
	if rt.conn == nil {
		return errors.New("realtime connection is closed")
	}
	return rt.conn.WriteJSON(msg)
}

// Subscribe calls fn for every change of cfg. The channel is joined by the first subscriber of a topic
// and left by the last one.
func (rt *Realtime) Subscribe(ctx context.Context, cfg PostgresChanges, fn school.ChangeHandler) (school.Subscription, error) {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	if cfg.Event == "" {
		cfg.Event = "*"
	}
	topic := fmt.Sprintf("realtime:%s:%s", cfg.Schema, cfg.Table)
	if cfg.Filter != "" {
		topic += ":" + cfg.Filter
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if err := rt.connect(ctx); err != nil {
		return nil, err
	}
	if ch, ok := rt.channels[topic]; ok {
		return rt.addHandler(ch, fn), nil
	}

	change := map[string]string{"event": cfg.Event, "schema": cfg.Schema, "table": cfg.Table}
	if cfg.Filter != "" {
		change["filter"] = cfg.Filter
	}
	payload, err := json.Marshal(map[string]interface{}{
		"config": map[string]interface{}{"postgres_changes": []map[string]string{change}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "encoding join payload")
	}

	ref := rt.nextRef()
	ch := &channel{topic: topic, joinRef: ref, handlers: make(map[int]school.ChangeHandler)}
	if err = rt.send(envelope{Topic: topic, Event: "phx_join", Payload: payload, Ref: ref, JoinRef: ref}); err != nil {
		return nil, errors.Wrapf(err, "joining %s", topic)
	}
	rt.channels[topic] = ch
	return rt.addHandler(ch, fn), nil
}

// addHandler must be called with mu held.
func (rt *Realtime) addHandler(ch *channel, fn school.ChangeHandler) *subscriber {
	rt.lastSub++
	ch.handlers[rt.lastSub] = fn
	return &subscriber{rt: rt, ch: ch, id: rt.lastSub}
}

// Unsubscribe removes the handler, leaving the channel once it has none.
// The connection stays open for the other channels.
func (s *subscriber) Unsubscribe() error {
	rt := s.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ch := s.ch
	if rt.channels[ch.topic] != ch {
		return nil
	}
	if _, ok := ch.handlers[s.id]; !ok {
		return nil
	}
	delete(ch.handlers, s.id)
	if len(ch.handlers) > 0 {
		return nil
	}
	delete(rt.channels, ch.topic)
	err := rt.send(envelope{Topic: ch.topic, Event: "phx_leave", Payload: json.RawMessage("{}"), Ref: rt.nextRef(), JoinRef: ch.joinRef})
	return errors.Wrapf(err, "leaving %s", ch.topic)
}

func (rt *Realtime) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			rt.mu.Lock()
			if rt.conn == conn {
				// dropped by the server: forget the connection so the next Subscribe redials
				rt.logger.Warn("realtime connection lost", err)
				close(done)
				_ = conn.Close()
				rt.conn = nil
				rt.channels = make(map[string]*channel)
			}
			rt.mu.Unlock()
			return
		}
		rt.dispatch(msg)
	}
}

func (rt *Realtime) dispatch(msg envelope) {
	switch msg.Event {
	case "phx_reply", "phx_close", "presence_state", "presence_diff", "system", "heartbeat":
		return
	case "phx_error":
		rt.logger.Warn("realtime channel error", map[string]interface{}{"topic": msg.Topic})
		return
	}

	var p changePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		rt.logger.Warn("undecodable realtime payload", err, map[string]interface{}{"topic": msg.Topic})
		return
	}
	if p.Data != nil {
		p = *p.Data
	}
	if p.Type == "" {
		p.Type = msg.Event
	}

	rt.mu.Lock()
	var handlers []school.ChangeHandler
	if ch, ok := rt.channels[msg.Topic]; ok {
		handlers = make([]school.ChangeHandler, 0, len(ch.handlers))
		for _, fn := range ch.handlers {
			handlers = append(handlers, fn)
		}
	}
	rt.mu.Unlock()

	change := school.Change{Table: p.Table, Type: p.Type, Record: p.Record}
	for _, fn := range handlers {
		fn(change)
	}
}

func (rt *Realtime) heartbeat(done chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rt.mu.Lock()
			err := rt.send(envelope{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage("{}"), Ref: rt.nextRef()})
			rt.mu.Unlock()
			if err != nil {
				rt.logger.Warn("realtime heartbeat failed", err)
			}
		}
	}
}

// Subscriptions are the live feeds of the app, all on INSERT.
type Subscriptions struct {
	rt *Realtime
}

var _ school.Subscriptions = (*Subscriptions)(nil)

func NewSubscriptions(rt *Realtime) *Subscriptions {
	return &Subscriptions{rt: rt}
}

func (s *Subscriptions) SubscribeMessages(ctx context.Context, recipientID string, fn school.ChangeHandler) (school.Subscription, error) {
	return s.rt.Subscribe(ctx, PostgresChanges{Event: "INSERT", Table: "messages", Filter: "recipient_id=eq." + recipientID}, fn)
}

func (s *Subscriptions) SubscribeBusTracking(ctx context.Context, routeID string, fn school.ChangeHandler) (school.Subscription, error) {
	return s.rt.Subscribe(ctx, PostgresChanges{Event: "INSERT", Table: "bus_tracking", Filter: "route_id=eq." + routeID}, fn)
}

func (s *Subscriptions) SubscribeAnnouncements(ctx context.Context, schoolID string, fn school.ChangeHandler) (school.Subscription, error) {
	return s.rt.Subscribe(ctx, PostgresChanges{Event: "INSERT", Table: "announcements", Filter: "school_id=eq." + schoolID}, fn)
}
