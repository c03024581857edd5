// Package websocket pushes dashboard refreshes and session notices to portal
// clients. Clients subscribe to topics; the hub fans events out to them.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/platform/session"
)

// Event types.
const (
	EventRefresh        = "view.refresh"
	EventSessionExpired = "session.expired"
)

// Event is one notification sent to clients.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an event stamped now.
func NewEvent(typ, topic string, data interface{}) (Event, error) {
	ev := Event{Type: typ, Topic: topic, Timestamp: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = raw
	}
	return ev, nil
}

// ClientMessage is an inbound message. Action is subscribe, unsubscribe or
// activity; Kind names the activity (pointer, key, scroll, click).
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics,omitempty"`
	Kind   string   `json:"kind,omitempty"`
}

// EventPublisher is implemented by Hub.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Client is one connected browser tab.
type Client struct {
	ID        string
	SessionID uuid.UUID
	Topics    []string
	Send      chan []byte
}

// Hub tracks clients by topic and by session.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	sessions map[uuid.UUID]map[*Client]struct{}
	all      map[*Client]struct{}
	logger   zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]map[*Client]struct{}),
		sessions: make(map[uuid.UUID]map[*Client]struct{}),
		all:      make(map[*Client]struct{}),
		logger:   logger,
	}
}

func addTo[K comparable](m map[K]map[*Client]struct{}, k K, c *Client) {
	if m[k] == nil {
		m[k] = make(map[*Client]struct{})
	}
	m[k][c] = struct{}{}
}

func removeFrom[K comparable](m map[K]map[*Client]struct{}, k K, c *Client) {
	if set, ok := m[k]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(m, k)
		}
	}
}

// Register adds client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	if client.SessionID != uuid.Nil {
		addTo(h.sessions, client.SessionID, client)
	}
	for _, topic := range client.Topics {
		addTo(h.clients, topic, client)
	}
}

// Unregister removes client everywhere and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		removeFrom(h.clients, topic, client)
	}
	removeFrom(h.sessions, client.SessionID, client)
	delete(h.all, client)
	close(client.Send)
}

func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if slices.Contains(client.Topics, topic) {
			continue
		}
		addTo(h.clients, topic, client)
		client.Topics = append(client.Topics, topic)
	}
}

func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		removeFrom(h.clients, topic, client)
	}
	client.Topics = slices.DeleteFunc(client.Topics, func(t string) bool {
		return slices.Contains(topics, t)
	})
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("marshal websocket event")
		return nil, false
	}
	return data, true
}

// deliver never blocks; a client with a full buffer misses the event.
func (h *Hub) deliver(set map[*Client]struct{}, data []byte) int {
	n := 0
	for client := range set {
		select {
		case client.Send <- data:
			n++
		default:
			h.logger.Debug().Str("client_id", client.ID).Msg("websocket buffer full, event dropped")
		}
	}
	return n
}

// Broadcast sends event to every subscriber of topic.
func (h *Hub) Broadcast(topic string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(h.clients[topic], data)
}

// SendToSession sends event to every tab of one session and reports how many
// received it.
func (h *Hub) SendToSession(id uuid.UUID, event Event) int {
	data, ok := h.encode(event)
	if !ok {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.sessions[id], data)
}

// Publish broadcasts event to its topic.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event.Topic, event)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// HasSubscribers reports whether anyone listens on topic.
func (h *Hub) HasSubscribers(topic string) bool {
	return h.TopicCount(topic) > 0
}

// -- Handler --

// HandlerConfig configures the websocket endpoint.
type HandlerConfig struct {
	// AllowedOrigins lists origins allowed to connect; empty allows any.
	AllowedOrigins []string
	// AllowTopic decides whether s may subscribe to topic. Nil allows all.
	AllowTopic func(s *session.Session, topic string) bool
	// OnActivity is called for each activity message.
	OnActivity func(id uuid.UUID, a session.Activity)
}

type Handler struct {
	hub      *Hub
	cfg      HandlerConfig
	upgrader gorillawebsocket.Upgrader
}

func NewHandler(hub *Hub, cfg HandlerConfig) *Handler {
	h := &Handler{hub: hub, cfg: cfg}
	h.upgrader = gorillawebsocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin) || slices.Contains(h.cfg.AllowedOrigins, "*")
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.Connect)
}

// Connect upgrades a signed-in request and starts the client's pumps.
func (h *Handler) Connect(c echo.Context) error {
	s := session.FromContext(c.Request().Context())
	if err := session.Authorize(s); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "sign in to receive live updates")
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:        uuid.NewString(),
		SessionID: s.ID,
		Topics:    []string{},
		Send:      make(chan []byte, 64),
	}
	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, s, ws)
	return nil
}

// ProcessMessage applies one inbound message for a client of session s.
func (h *Handler) ProcessMessage(client *Client, s *session.Session, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		allowed := make([]string, 0, len(msg.Topics))
		for _, t := range msg.Topics {
			if h.cfg.AllowTopic == nil || h.cfg.AllowTopic(s, t) {
				allowed = append(allowed, t)
			}
		}
		h.hub.Subscribe(client, allowed)
	case "unsubscribe":
		h.hub.Unsubscribe(client, msg.Topics)
	case "activity":
		if h.cfg.OnActivity != nil {
			h.cfg.OnActivity(client.SessionID, parseActivity(msg.Kind))
		}
	}
}

func parseActivity(kind string) session.Activity {
	switch kind {
	case "key":
		return session.ActivityKey
	case "scroll":
		return session.ActivityScroll
	case "click":
		return session.ActivityClick
	default:
		return session.ActivityPointer
	}
}

func (h *Handler) readPump(client *Client, s *session.Session, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadLimit(4096)
	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		h.ProcessMessage(client, s, msg)
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			return
		}
	}
	ws.WriteMessage(gorillawebsocket.CloseMessage, gorillawebsocket.FormatCloseMessage(gorillawebsocket.CloseNormalClosure, ""))
}
