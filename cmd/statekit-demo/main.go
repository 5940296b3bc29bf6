// Command statekit-demo is a live-counter server that exercises the
// binding layer end to end: a loop-confined counter model backed by a
// BatchedNotifier, one Watcher per WebSocket connection pushing the
// counter value on change, Prometheus metrics, and an OTel span per
// mutation event.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/statekit/pkg/statekit"
	"github.com/vango-dev/statekit/pkg/statemetrics"
)

const tracerName = "statekit-demo"

// counter is the demo application state. All field access happens on the
// loop goroutine.
type counter struct {
	*statekit.BatchedNotifier
	value int64
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	loop := statekit.NewLoop(statekit.WithLogger(log))
	loop.Start()
	defer loop.Close()

	metrics := statemetrics.New()

	// Model construction and Scope registration run on the loop, the
	// model's single logical thread of control.
	scope := statekit.NewScope(nil)
	var model *counter
	err := loop.DispatchSync(func() {
		model = &counter{
			BatchedNotifier: statekit.NewBatchedNotifier(loop,
				metrics.Options("counter", statekit.NewLogSink(log))...),
		}
		statekit.Provide(scope, model)
	})
	if err != nil {
		log.Error("model init failed", "err", err)
		os.Exit(1)
	}

	srv := &demoServer{
		log:    log,
		loop:   loop,
		scope:  scope,
		tracer: otel.Tracer(tracerName),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	r.Post("/increment", srv.handleIncrement)
	r.Get("/value", srv.handleValue)
	r.Get("/ws", srv.handleWS)
	r.Handle("/metrics", promhttp.Handler())

	log.Info("statekit-demo listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

type demoServer struct {
	log      *slog.Logger
	loop     *statekit.Loop
	scope    *statekit.Scope
	tracer   trace.Tracer
	upgrader websocket.Upgrader
}

// model resolves the counter through the scope the way any nested
// consumer would, rather than holding a direct reference.
func (s *demoServer) model() (*counter, bool) {
	return statekit.Lookup[*counter](s.scope)
}

// handleIncrement applies `n` increments (default 1) as one batched
// window: every Mutate in the dispatched callback coalesces into a
// single flush and a single notification pass.
func (s *demoServer) handleIncrement(w http.ResponseWriter, r *http.Request) {
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &n); err != nil || n < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	_, span := s.tracer.Start(r.Context(), "counter.increment",
		trace.WithAttributes(attribute.Int("counter.increments", n)))
	defer span.End()

	m, ok := s.model()
	if !ok {
		http.Error(w, "counter not provided", http.StatusInternalServerError)
		return
	}

	var value int64
	err := s.loop.DispatchSync(func() {
		for i := 0; i < n; i++ {
			m.Mutate(func() { m.value++ })
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err := s.loop.DispatchSync(func() { value = m.value }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"value":%d}`+"\n", value)
}

func (s *demoServer) handleValue(w http.ResponseWriter, r *http.Request) {
	m, ok := s.model()
	if !ok {
		http.Error(w, "counter not provided", http.StatusInternalServerError)
		return
	}

	var value int64
	if err := s.loop.DispatchSync(func() { value = m.value }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"value":%d}`+"\n", value)
}

// handleWS streams counter changes. Each connection gets its own Watcher
// subscribed on the loop; the watcher forwards changed values to the
// connection's write goroutine, and unsubscribes when the client leaves.
func (s *demoServer) handleWS(w http.ResponseWriter, r *http.Request) {
	m, ok := s.model()
	if !ok {
		http.Error(w, "counter not provided", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates := make(chan int64, 16)
	var (
		watcher  *statekit.Watcher[int64]
		watchErr error
	)
	err = s.loop.DispatchSync(func() {
		watcher, watchErr = statekit.Watch(m,
			func() int64 { return m.value },
			func(v int64) {
				select {
				case updates <- v:
				default:
					// Slow consumer: drop intermediate values, the next
					// change carries the latest state anyway.
				}
			})
	})
	if err == nil {
		err = watchErr
	}
	if err != nil {
		s.log.Warn("watch failed", "err", err)
		return
	}
	defer s.loop.Dispatch(func() { watcher.Close() })

	// Send the current value up front.
	if err := writeValue(conn, watcher.Value()); err != nil {
		return
	}

	// Reader goroutine: we never expect client messages, but reading is
	// what detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case v := <-updates:
			if err := writeValue(conn, v); err != nil {
				return
			}
		case <-closed:
			return
		case <-s.loop.Done():
			return
		}
	}
}

func writeValue(conn *websocket.Conn, v int64) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, fmt.Appendf(nil, `{"value":%d}`, v))
}
