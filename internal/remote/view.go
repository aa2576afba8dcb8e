package remote

import (
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/slideshow"
)

// SessionView — JSON представление сессии для пульта.
type SessionView struct {
	SessionID    string      `json:"session_id"`
	Generation   uint64      `json:"generation"`
	Title        string      `json:"title"`
	Theme        deck.Theme  `json:"theme"`
	Total        int         `json:"total"`
	Index        int         `json:"index"`
	State        string      `json:"state"`
	Playing      bool        `json:"playing"`
	Fullscreen   bool        `json:"fullscreen"`
	ShowProgress bool        `json:"show_progress"`
	Progress     float64     `json:"progress"`
	Images       []string    `json:"images"`
	Slide        *deck.Slide `json:"slide,omitempty"`
	Fallback     string      `json:"fallback,omitempty"` // "no content" | "slide not found"
}

// ActionResponse — ответ на команду управления.
type ActionResponse struct {
	Action   string      `json:"action"`
	Accepted bool        `json:"accepted"` // false: команда проигнорирована (lock, диапазон)
	Session  SessionView `json:"session"`
}

// Message — сообщение WebSocket клиенту.
type Message struct {
	Type    string      `json:"type"` // "snapshot" или тип события контроллера
	Session SessionView `json:"session"`
	Error   string      `json:"error,omitempty"`
}

// Command — входящее сообщение WebSocket: {"action":"next"} или {"action":"goto","index":2}.
type Command struct {
	Action string `json:"action"`
	Index  int    `json:"index,omitempty"`
}

func viewOf(ctrl *slideshow.Controller) SessionView {
	snap := ctrl.Snapshot()

	v := SessionView{
		SessionID:    snap.SessionID,
		Generation:   snap.Generation,
		Title:        snap.Title,
		Theme:        snap.Theme,
		Total:        snap.Total,
		Index:        snap.Index,
		State:        snap.State.String(),
		Playing:      snap.Playing,
		Fullscreen:   snap.Fullscreen,
		ShowProgress: snap.ShowProgress,
		Progress:     snap.Progress,
		Images:       make([]string, len(snap.Images)),
	}
	for i, st := range snap.Images {
		v.Images[i] = string(st)
	}

	slide, err := ctrl.Current()
	if err != nil {
		v.Fallback = err.Error()
	} else {
		v.Slide = &slide
	}
	return v
}
