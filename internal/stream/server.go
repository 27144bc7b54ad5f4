package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/olivierh59500/particle-sandbox-go/internal/sandbox"
)

const (
	sendQueue  = 16
	writeWait  = 10 * time.Second
	maxMessage = 64 << 10
)

type frame struct {
	kind int
	data []byte
}

// client is one websocket connection with its own send queue
type client struct {
	conn *websocket.Conn
	send chan frame
}

// Server broadcasts snapshots of a Runner and feeds client commands back to it
type Server struct {
	runner *sandbox.Runner
	every  int
	logger *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer broadcasts every Nth snapshot published by r
func NewServer(r *sandbox.Runner, every int, logger *log.Logger) *Server {
	if every < 1 {
		every = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: r,
		every:  every,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	r.OnReport(s.report)
	return s
}

// Handler routes /ws to the websocket endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// Run broadcasts snapshots until ctx is done
func (s *Server) Run(ctx context.Context) error {
	n := 0
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return ctx.Err()
		case snap := <-s.runner.Snapshots():
			n++
			if n%s.every != 0 {
				continue
			}
			data, err := msgpack.Marshal(snap)
			if err != nil {
				s.logger.Printf("encode snapshot: %v", err)
				continue
			}
			s.broadcast(frame{kind: websocket.BinaryMessage, data: data})
		}
	}
}

// report runs on the simulation goroutine and must not block
func (s *Server) report(rep sandbox.Report) {
	if !rep.ParticlesChanged && !rep.ObjectsChanged {
		return
	}
	data, err := json.Marshal(Counts{Particles: rep.Particles, Objects: rep.Objects, TPS: rep.TPS})
	if err != nil {
		return
	}
	s.broadcast(frame{kind: websocket.TextMessage, data: data})
}

// broadcast queues f for every client, dropping it for clients that lag
func (s *Server) broadcast(f frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- f:
		default:
		}
	}
}

// reply queues f for one client unless it was dropped
func (s *Server) reply(c *client, f frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- f:
	default:
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			s.logger.Println(err)
		}
		return
	}
	s.logger.Printf("client %s connected", conn.RemoteAddr())

	c := &client{conn: conn, send: make(chan frame, sendQueue)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeSocket(c)
	s.readSocket(c)
}

// readSocket decodes commands until the connection drops
func (s *Server) readSocket(c *client) {
	defer s.drop(c)

	c.conn.SetReadLimit(maxMessage)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Printf("error: %v", err)
			}
			return
		}
		cmd, err := Decode(msg)
		if err != nil {
			reply, _ := json.Marshal(map[string]string{"error": err.Error()})
			s.reply(c, frame{kind: websocket.TextMessage, data: reply})
			continue
		}
		s.runner.Submit(cmd)
	}
}

func (s *Server) writeSocket(c *client) {
	defer c.conn.Close()
	for f := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
			s.logger.Println(err)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	s.logger.Printf("client %s disconnected", c.conn.RemoteAddr())
}

func (s *Server) closeAll() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		s.drop(c)
	}
}
