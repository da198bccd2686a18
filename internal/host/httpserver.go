package host

import (
	"fmt"
	"net/http"

	"github.com/dop251/goja"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// serve implements host.serve(addr, handler): a net/http.ServeMux-backed
// server, matching the teacher's own api/server.go (http.NewServeMux,
// http.Server{Addr, Handler}) almost exactly. Requests to a path ending in
// "/ws" are upgraded to a websocket connection via gorilla/websocket
// (mirroring k6's own websockets extension surface) instead of being
// handed to handler as a plain request; every other route invokes
// handler(request) synchronously on the event loop, with request a
// {method, url, body} object, and writes the {status, body} object it
// returns as the response.
func (r *Runtime) serve(addr string, handler goja.Callable) error {
	if _, exists := r.servers[addr]; exists {
		return fmt.Errorf("host.serve: %s is already bound", addr)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if len(req.URL.Path) >= 3 && req.URL.Path[len(req.URL.Path)-3:] == "/ws" {
			r.serveWebsocket(w, req, handler)
			return
		}
		r.serveHTTP(w, req, handler)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	r.servers[addr] = srv

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.WithError(err).WithField("addr", addr).Error("host.serve: server stopped")
		}
	}()
	return nil
}

func (r *Runtime) serveHTTP(w http.ResponseWriter, req *http.Request, handler goja.Callable) {
	release := r.loop.registerCallback()
	done := make(chan struct{})
	release(func() {
		defer close(done)
		body, _ := readBody(&http.Response{Body: req.Body})
		reqValue := r.vm.ToValue(map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
			"body":   body,
		})
		respValue, err := handler(goja.Undefined(), reqValue)
		if err != nil {
			r.logger.WithError(err).Error("host.serve: handler raised an error")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSResponse(w, respValue)
	})
	<-done
}

func writeJSResponse(w http.ResponseWriter, respValue goja.Value) {
	exported, ok := respValue.Export().(map[string]interface{})
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if status, ok := exported["status"].(int64); ok {
		w.WriteHeader(int(status))
	}
	if body, ok := exported["body"].(string); ok {
		_, _ = w.Write([]byte(body))
	}
}

// serveWebsocket upgrades req to a websocket connection and hands handler
// a `{send(message), close()}` binding on the event loop. Incoming frames
// are read and discarded until the connection closes; they are not passed
// to handler.
func (r *Runtime) serveWebsocket(w http.ResponseWriter, req *http.Request, handler goja.Callable) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.WithError(err).Error("host.serve: websocket upgrade failed")
		return
	}

	socket := r.vm.ToValue(map[string]interface{}{
		"send": func(message string) error {
			return conn.WriteMessage(websocket.TextMessage, []byte(message))
		},
		"close": func() error {
			return conn.Close()
		},
	})

	release := r.loop.registerCallback()
	release(func() {
		if _, err := handler(goja.Undefined(), socket); err != nil {
			r.logger.WithError(err).Error("host.serve: websocket handler raised an error")
		}
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			return
		}
	}
}
