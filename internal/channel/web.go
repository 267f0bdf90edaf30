package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/culturalabs/cultura/internal/bus"
	"github.com/culturalabs/cultura/internal/config"
	"github.com/culturalabs/cultura/internal/stylist"
)

const webChannelName = "web"

// Responder produces the reply for one web message. The web channel is
// synchronous, so it calls the pipeline directly instead of going through
// the outbound bus.
type Responder func(ctx context.Context, userID, message string) (string, error)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type WebChannel struct {
	BaseChannel
	host    string
	port    int
	respond Responder
	server  *http.Server
}

func NewWebChannel(gwCfg config.GatewayConfig, b *bus.MessageBus, respond Responder) (*WebChannel, error) {
	if respond == nil {
		return nil, fmt.Errorf("web channel requires a responder")
	}
	host := gwCfg.Host
	if host == "" {
		host = config.DefaultHost
	}
	port := gwCfg.Port
	if port == 0 {
		port = config.DefaultPort
	}
	return &WebChannel{
		BaseChannel: NewBaseChannel(webChannelName, b, nil),
		host:        host,
		port:        port,
		respond:     respond,
	}, nil
}

func (w *WebChannel) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handleIndex)
	mux.HandleFunc("/cultura", w.handleChat)

	w.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", w.host, w.port),
		Handler: mux,
	}

	go func() {
		log.Printf("[web] listening on %s", w.server.Addr)
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[web] server error: %v", err)
		}
	}()

	return nil
}

func (w *WebChannel) handleIndex(wr http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(wr, r)
		return
	}
	wr.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(wr, "<h1>Cultura</h1><p>POST a JSON body with a \"message\" field to /cultura.</p>")
}

func (w *WebChannel) handleChat(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wr.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(wr, "<h1>Cultura</h1><p>This endpoint accepts POST requests with a JSON body: {\"message\": \"...\"}</p>")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(wr, http.StatusBadRequest, chatResponse{Error: "No message provided"})
		return
	}

	reply, err := w.respond(r.Context(), config.DefaultWebUserID, req.Message)
	if err != nil {
		log.Printf("[web] respond failed: %v", err)
		writeJSON(wr, http.StatusInternalServerError, chatResponse{Error: err.Error()})
		return
	}

	writeJSON(wr, http.StatusOK, chatResponse{Response: stylist.FormatReply(reply)})
}

func writeJSON(wr http.ResponseWriter, status int, body chatResponse) {
	wr.Header().Set("Content-Type", "application/json")
	wr.WriteHeader(status)
	if err := json.NewEncoder(wr).Encode(body); err != nil {
		log.Printf("[web] write response failed: %v", err)
	}
}

// Send satisfies Channel; web replies are returned inline from the handler,
// so nothing is routed here.
func (w *WebChannel) Send(msg bus.OutboundMessage) error {
	return nil
}

func (w *WebChannel) Stop() error {
	if w.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.server.Shutdown(ctx); err != nil {
			log.Printf("[web] shutdown error: %v", err)
		}
	}
	log.Printf("[web] stopped")
	return nil
}

// Handler exposes the route mux for tests.
func (w *WebChannel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handleIndex)
	mux.HandleFunc("/cultura", w.handleChat)
	return mux
}
