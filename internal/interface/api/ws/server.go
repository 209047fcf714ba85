package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// Server expone /ws/events y retransmite cada evento del bus como JSON a los
// observadores conectados. Los observadores solo leen.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	api *apiHandlers
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// NewServer crea un servidor escuchando en cfg.Addr (ej. ":8080").
func NewServer(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		addr: cfg.addr(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log:     log,
		clients: make(map[*wsClient]struct{}),
		api:     newAPIHandlers(cfg),
	}
}

// Handler arma el mux HTTP; Start lo usa y las pruebas lo montan en httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/events", s.handleWS)
	s.api.register(mux)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			setCORSHeaders(w)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		mux.ServeHTTP(w, r)
	})
}

// Start levanta el HTTP server y se bloquea hasta que el contexto se cancela.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("ws: shutdown error", zap.Error(err))
		}
		s.closeAll()
	}()

	s.log.Info("ws: escuchando", zap.String("addr", s.addr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws: upgrade error", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	clientCount := len(s.clients)
	s.mu.Unlock()

	s.log.Info("ws: nueva conexión",
		zap.String("remote", r.RemoteAddr),
		zap.Int("clients", clientCount),
	)

	go s.drain(client)
}

// drain lee hasta que el observador se desconecta; lo que mande se ignora.
func (s *Server) drain(client *wsClient) {
	defer s.drop(client)

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("ws: read error", zap.Error(err))
			}
			return
		}
	}
}

// Clients devuelve cuántos observadores hay conectados.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast envía el evento a cada observador. Un observador que falla se desconecta.
func (s *Server) Broadcast(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(envelope{Type: topic, Data: payload})
	if err != nil {
		return err
	}

	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.writeJSON(json.RawMessage(data)); err != nil {
			s.log.Debug("ws: removing client due to write error", zap.Error(err))
			s.drop(c)
		}
	}
	return nil
}

func (s *Server) drop(c *wsClient) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	clientCount := len(s.clients)
	s.mu.Unlock()

	if !ok {
		return
	}
	c.conn.Close()
	s.log.Info("ws: conexión cerrada", zap.Int("clients", clientCount))
}

func (s *Server) closeAll() {
	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		s.drop(c)
	}
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
