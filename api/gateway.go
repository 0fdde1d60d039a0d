package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("API")

type GatewayConfig struct {
	Listener net.Listener
	NoCors   bool

	// Username and Password protect the websocket feed. Password is the
	// hex encoded sha256 of the plain text password. The feed is not
	// served when either is empty.
	Username string
	Password string
}

// Gateway represents the HTTP API gateway. It serves the liveness check,
// the current quotes and the admin's live transaction feed.
type Gateway struct {
	listener net.Listener
	node     CoreIface
	handler  http.Handler
	config   *GatewayConfig
	hub      *hub
	server   *http.Server
}

// NewGateway instantiates a new gateway.
func NewGateway(node CoreIface, config *GatewayConfig) (*Gateway, error) {
	g := &Gateway{
		node:     node,
		config:   config,
		listener: config.Listener,
		hub:      newHub(),
	}

	r := g.newV1Router()
	if !config.NoCors {
		r.Use(mux.CORSMethodMiddleware(r))
	}
	g.handler = r
	g.server = &http.Server{
		Handler:           g.handler,
		ReadHeaderTimeout: time.Second * 10,
	}
	go g.hub.run()
	return g, nil
}

// Close shuts down the HTTP server and disconnects websocket clients.
func (g *Gateway) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	g.hub.stop()
	return g.server.Shutdown(ctx)
}

// Serve begins listening on the configured address. It blocks until the
// gateway is closed.
func (g *Gateway) Serve() error {
	log.Infof("Gateway/API server listening on %s", g.listener.Addr())
	err := g.server.Serve(g.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// NotifyWebsockets marshals i and broadcasts it to every connected
// websocket client.
func (g *Gateway) NotifyWebsockets(i interface{}) error {
	out, err := json.Marshal(i)
	if err != nil {
		return err
	}
	g.hub.broadcast(out)
	return nil
}

func (g *Gateway) feedEnabled() bool {
	return g.config.Username != "" && g.config.Password != ""
}

func (g *Gateway) newV1Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", g.handleGETAlive).Methods("GET", "HEAD")
	r.HandleFunc("/v1/rates", g.handleGETRates).Methods("GET")

	if g.feedEnabled() {
		r.Handle("/v1/ws", g.AuthenticationMiddleware(newWebsocketHandler(g.hub))).Methods("GET")
	}
	return r
}
