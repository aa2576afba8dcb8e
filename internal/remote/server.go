// Package remote — HTTP/WebSocket пульт управления показом.
//
// REST команды переводятся в вызовы slideshow.Controller, а каждое событие
// контроллера рассылается подключённым WebSocket клиентам вместе
// с полным снимком сессии.
//
//	GET  /api/session               — снимок сессии
//	POST /api/session/{action}      — next|previous|reset|play|pause|toggle|fullscreen
//	POST /api/session/goto/{index}  — переход к слайду
//	POST /api/session/retry/{index} — повтор загрузки изображения
//	POST /api/deck                  — заменить презентацию (JSON)
//	GET  /ws                        — поток снимков
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/events"
	"github.com/ilkoid/poncho-slides/pkg/imagesearch"
	"github.com/ilkoid/poncho-slides/pkg/slideshow"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// maxDeckBytes ограничивает тело POST /api/deck.
const maxDeckBytes = 1 << 20

// ErrUnknownAction — команда не поддерживается.
var ErrUnknownAction = errors.New("unknown action")

// EventSource выдаёт подписки на события контроллера (реализация: events.Bus).
type EventSource interface {
	Subscribe() events.Subscriber
}

// Server — пульт управления одним контроллером.
type Server struct {
	ctrl     *slideshow.Controller
	source   EventSource
	router   *mux.Router
	upgrader websocket.Upgrader
	allowed  map[string]bool
	searcher imagesearch.Searcher

	mu      sync.Mutex
	clients map[string]*client
}

// Option настраивает Server.
type Option func(*Server)

// WithSearcher включает поиск изображений для слайдов присланной
// презентации, у которых есть query, но нет URL.
func WithSearcher(searcher imagesearch.Searcher) Option {
	return func(s *Server) { s.searcher = searcher }
}

// New создаёт сервер. source может быть nil: тогда /ws отдаёт только начальный снимок.
func New(ctrl *slideshow.Controller, source EventSource, cfg config.RemoteConfig, opts ...Option) *Server {
	s := &Server{
		ctrl:    ctrl,
		source:  source,
		allowed: make(map[string]bool),
		clients: make(map[string]*client),
	}
	for _, o := range cfg.AllowedOrigins {
		s.allowed[strings.TrimRight(o, "/")] = true
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	api.HandleFunc("/session/goto/{index:[0-9]+}", s.handleGoTo).Methods(http.MethodPost)
	api.HandleFunc("/session/retry/{index:[0-9]+}", s.handleRetry).Methods(http.MethodPost)
	api.HandleFunc("/session/{action}", s.handleAction).Methods(http.MethodPost)
	api.HandleFunc("/deck", s.handleDeck).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.Use(s.logRequests)
	return r
}

// Handler возвращает http.Handler сервера.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe обслуживает addr до отмены ctx, затем корректно останавливается.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("Remote control listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("remote server: %w", err)
	case <-ctx.Done():
	}

	s.closeClients()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("remote server shutdown: %w", err)
	}
	return nil
}

// Dispatch применяет команду к контроллеру.
//
// Возвращает false, если контроллер её проигнорировал (lock, диапазон).
func Dispatch(ctrl *slideshow.Controller, cmd Command) (bool, error) {
	switch cmd.Action {
	case "next":
		return ctrl.Next(), nil
	case "previous", "prev":
		return ctrl.Previous(), nil
	case "goto":
		return ctrl.GoTo(cmd.Index), nil
	case "reset":
		ctrl.Reset()
		return true, nil
	case "play":
		return ctrl.Play(), nil
	case "pause":
		return ctrl.Pause(), nil
	case "toggle":
		return ctrl.TogglePlay(), nil
	case "fullscreen":
		return ctrl.ToggleFullscreen(), nil
	case "retry":
		return ctrl.RetryImage(cmd.Index), nil
	default:
		return false, fmt.Errorf("%w '%s'", ErrUnknownAction, cmd.Action)
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(s.ctrl))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	if action == "goto" || action == "retry" {
		writeError(w, http.StatusBadRequest, action+" requires an index")
		return
	}
	s.respondAction(w, Command{Action: action})
}

func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	s.respondIndexed(w, r, "goto")
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.respondIndexed(w, r, "retry")
}

func (s *Server) respondIndexed(w http.ResponseWriter, r *http.Request, action string) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	s.respondAction(w, Command{Action: action, Index: i})
}

func (s *Server) respondAction(w http.ResponseWriter, cmd Command) {
	accepted, err := Dispatch(s.ctrl, cmd)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{
		Action:   cmd.Action,
		Accepted: accepted,
		Session:  viewOf(s.ctrl),
	})
}

// handleDeck заменяет презентацию. Документ проверяется до Load.
func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDeckBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "deck is too large")
		return
	}

	d, err := deck.Parse(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolved := 0
	if s.searcher != nil {
		*d, resolved = imagesearch.ResolveDeck(r.Context(), s.searcher, *d)
	}

	s.ctrl.Load(d)
	utils.Info("Remote: deck replaced", "title", d.Title, "slides", d.Len(), "images_resolved", resolved)
	writeJSON(w, http.StatusOK, viewOf(s.ctrl))
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.allowed["*"] || s.allowed[origin] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		utils.Debug("Remote request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Warn("Remote: failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
