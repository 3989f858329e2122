package channel

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/linanwx/askchat/chat"
	"github.com/linanwx/askchat/chatmd"
	"github.com/linanwx/askchat/logger"
)

const (
	webReadHeaderTimeout = 10 * time.Second
	webShutdownTimeout   = 5 * time.Second
	webReadLimit         = 64 * 1024
)

//go:embed web/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// WebConfig configures the browser channel.
type WebConfig struct {
	Addr  string
	Title string
	Asker chat.Asker
}

// WebChannel serves the chat page and drives it over a websocket. Every
// connection gets its own conversation, so reloading the page clears it.
type WebChannel struct {
	cfg     WebConfig
	baseCtx context.Context
}

// NewWebChannel creates a web channel.
func NewWebChannel(cfg WebConfig) *WebChannel {
	if cfg.Title == "" {
		cfg.Title = "askchat"
	}
	return &WebChannel{cfg: cfg, baseCtx: context.Background()}
}

func (c *WebChannel) Name() string { return "web" }

// Handler returns the HTTP handler serving the page and the websocket.
func (c *WebChannel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /ws", c.handleWS)
	return mux
}

func (c *WebChannel) Run(ctx context.Context) error {
	c.baseCtx = ctx
	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           c.Handler(),
		ReadHeaderTimeout: webReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("web channel started", "addr", c.cfg.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), webShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web shutdown: %w", err)
	}
	return nil
}

func (c *WebChannel) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct{ Title, Thinking string }{c.cfg.Title, thinkingText}); err != nil {
		logger.Error("web index render failed", "err", err)
	}
}

// clientFrame is a message sent by the page.
type clientFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// webMessage is one rendered row of the conversation.
type webMessage struct {
	ID   string    `json:"id"`
	Role chat.Role `json:"role"`
	HTML string    `json:"html"`
}

// webState is the full view state pushed to the page after every change.
type webState struct {
	Messages []webMessage `json:"messages"`
	Busy     bool         `json:"busy"`
}

func snapshot(s chat.State) webState {
	out := webState{Messages: make([]webMessage, 0, len(s.Messages)), Busy: s.Busy}
	for _, m := range s.Messages {
		out.Messages = append(out.Messages, webMessage{ID: m.ID, Role: m.Role, HTML: chatmd.Render(m)})
	}
	return out
}

func (c *WebChannel) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(webReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Observers only mark the view dirty; the writer reads the latest state
	// itself, so coalesced notifications never lose an update.
	dirty := make(chan struct{}, 1)
	markDirty := func(chat.State) {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}
	orch := chat.NewOrchestrator(c.cfg.Asker, chat.WithObserver(markDirty))
	markDirty(orch.State())

	logger.Info("web client connected", "remote", r.RemoteAddr)
	defer logger.Info("web client disconnected", "remote", r.RemoteAddr)

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
				if err := wsjson.Write(ctx, conn, snapshot(orch.State())); err != nil {
					return
				}
			}
		}
	}()

	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				logger.Debug("websocket read failed", "err", err)
			}
			return
		}
		if frame.Type != "submit" {
			logger.Debug("ignoring websocket frame", "type", frame.Type)
			continue
		}

		var input chat.Input
		input.SetDraft(frame.Text)
		input.SetDisabled(orch.Busy())
		accepted := input.Submit(func(text string) {
			ex, ok := orch.Begin(text)
			if !ok {
				return
			}
			// In-flight requests are not tied to the page; closing it does
			// not abort them.
			go func() {
				orch.Finish(orch.Ask(c.baseCtx, ex))
			}()
		})
		if !accepted {
			logger.Debug("web submission ignored", "busy", input.Disabled())
		}
	}
}
