package remote

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ilkoid/poncho-slides/pkg/events"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxCommandSize = 512
)

// client — одно WebSocket подключение.
type client struct {
	id   string
	conn *websocket.Conn
	sub  events.Subscriber // nil, если у сервера нет источника событий

	// send сериализует запись: gorilla/websocket допускает одного писателя.
	send chan Message
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.sub != nil {
			c.sub.Close()
		}
		c.conn.Close()
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		utils.Warn("Remote: websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, 16),
		done: make(chan struct{}),
	}
	if s.source != nil {
		c.sub = s.source.Subscribe()
	}
	s.addClient(c)
	utils.Info("Remote: client connected", "client", c.id, "remote_addr", r.RemoteAddr)

	c.send <- Message{Type: "snapshot", Session: viewOf(s.ctrl)}

	go s.writeLoop(c)
	go s.readLoop(c)
}

// writeLoop пишет снимки на каждое событие контроллера и пингует клиента.
func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.removeClient(c)
	}()

	var eventsCh <-chan events.Event
	if c.sub != nil {
		eventsCh = c.sub.Events()
	}

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}

		case ev, ok := <-eventsCh:
			if !ok {
				return
			}
			if err := c.write(Message{Type: string(ev.Type), Session: viewOf(s.ctrl)}); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(msg Message) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		utils.Debug("Remote: write failed", "client", c.id, "error", err)
		return err
	}
	return nil
}

// readLoop принимает команды клиента и следит за pong.
func (s *Server) readLoop(c *client) {
	defer s.removeClient(c)

	c.conn.SetReadLimit(maxCommandSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Warn("Remote: client connection error", "client", c.id, "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.reply(c, Message{Type: "error", Session: viewOf(s.ctrl), Error: "invalid command: " + err.Error()})
			continue
		}
		if _, err := Dispatch(s.ctrl, cmd); err != nil {
			s.reply(c, Message{Type: "error", Session: viewOf(s.ctrl), Error: err.Error()})
		}
		// Успешная команда вернётся клиенту событием контроллера
	}
}

func (s *Server) reply(c *client, msg Message) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		utils.Warn("Remote: reply dropped", "client", c.id)
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c.id]
	delete(s.clients, c.id)
	s.mu.Unlock()

	c.close()
	if ok {
		utils.Info("Remote: client disconnected", "client", c.id)
	}
}

// Clients возвращает число подключённых клиентов.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		s.removeClient(c)
	}
}
