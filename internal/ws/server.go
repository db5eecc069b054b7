package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	wire "github.com/DoyleJ11/card-table-backend/internal/types"
)

const outboxSize = 32

type client struct {
	id   string
	out  chan []byte
	done chan struct{}
	once sync.Once
	// reason is set once, before done closes
	reason string
}

func newClient(id string) *client {
	return &client{id: id, out: make(chan []byte, outboxSize), done: make(chan struct{})}
}

func (c *client) kill(reason string) {
	c.once.Do(func() {
		c.reason = reason
		close(c.done)
	})
}

// Server is the websocket side of the table hub: it tracks live connections and the
// table groups they belong to. No method blocks on a socket.
type Server struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]struct{}
}

func NewServer(log *zap.Logger) *Server {
	return &Server{
		log:     log.Named("ws"),
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
	for tableID, members := range s.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(s.groups, tableID)
		}
	}
}

func encode(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire.ServerMessage{Type: event, Payload: raw})
}

// deliver queues a frame. A client whose outbox is full is dropped rather than
// allowed to stall the table.
func (s *Server) deliver(c *client, frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.out <- frame:
	default:
		s.log.Warn("dropping slow client", zap.String("conn_id", c.id))
		c.kill("slow consumer")
	}
}

func (s *Server) Broadcast(tableID, event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		s.log.Error("encode broadcast", zap.String("event", event), zap.Error(err))
		return
	}
	s.mu.RLock()
	targets := make([]*client, 0, len(s.groups[tableID]))
	for id := range s.groups[tableID] {
		if c := s.clients[id]; c != nil {
			targets = append(targets, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range targets {
		s.deliver(c, frame)
	}
}

func (s *Server) SendTo(connID, event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		s.log.Error("encode frame", zap.String("event", event), zap.Error(err))
		return
	}
	s.sendRaw(connID, frame)
}

func (s *Server) sendRaw(connID string, frame []byte) {
	s.mu.RLock()
	c := s.clients[connID]
	s.mu.RUnlock()
	if c != nil {
		s.deliver(c, frame)
	}
}

func (s *Server) JoinGroup(connID, tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.groups[tableID]
	if members == nil {
		members = make(map[string]struct{})
		s.groups[tableID] = members
	}
	members[connID] = struct{}{}
}

func (s *Server) LeaveGroup(connID, tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.groups[tableID]
	delete(members, connID)
	if len(members) == 0 {
		delete(s.groups, tableID)
	}
}

// Disconnect closes the connection from the server side. Queued frames already in
// the outbox are still flushed.
func (s *Server) Disconnect(connID string) {
	s.mu.RLock()
	c := s.clients[connID]
	s.mu.RUnlock()
	if c != nil {
		c.kill("removed from table")
	}
}

// CloseAll drops every connection, used at shutdown.
func (s *Server) CloseAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.kill("server shutting down")
	}
}

func (s *Server) members(tableID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups[tableID])
}
