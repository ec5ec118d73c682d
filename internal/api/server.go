package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"

	"redis-check/internal/events"
	"redis-check/internal/logger"
	"redis-check/internal/metrics"
	"redis-check/internal/workload"
)

// StatusProvider は実行状態を返す
type StatusProvider interface {
	Status() workload.Status
}

// Server はメトリクスと実行状態を公開するHTTPサーバー
type Server struct {
	addr     string
	status   StatusProvider
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	bus      *events.Bus

	mu        sync.RWMutex
	wsClients map[*websocket.Conn]bool

	server *http.Server
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(addr string) *Server {
	return &Server{
		addr:      addr,
		gatherer:  prometheus.DefaultGatherer,
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// SetStatusProvider は /api/status の取得元を設定する
func (s *Server) SetStatusProvider(p StatusProvider) {
	s.status = p
}

// SetMetrics は /api/metrics の取得元を設定する
func (s *Server) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetGatherer は /metrics で公開するレジストリを設定する
func (s *Server) SetGatherer(g prometheus.Gatherer) {
	s.gatherer = g
}

// SetEventBus は /ws で配信するイベントバスを設定する
func (s *Server) SetEventBus(bus *events.Bus) {
	s.bus = bus
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// API routes
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/presets", s.handlePresets)

	// WebSocket
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start はサーバーを開始し、ctx がキャンセルされるまでブロックする
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// バックグラウンドでイベント配信
	go s.broadcastLoop(ctx)

	logger.Info("api", "Metrics server starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var resp workload.Status
	if s.status != nil {
		resp = s.status.Status()
	}
	s.writeJSON(w, resp)
}

// CommandMetrics はコマンド単位のメトリクス
type CommandMetrics struct {
	Total        uint64  `json:"total"`
	Failed       uint64  `json:"failed"`
	Mismatches   uint64  `json:"mismatches"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
}

// MetricsResponse はメトリクスレスポンス
type MetricsResponse struct {
	TotalRequests   uint64                    `json:"total_requests"`
	SuccessRequests uint64                    `json:"success_requests"`
	FailedRequests  uint64                    `json:"failed_requests"`
	Mismatches      uint64                    `json:"mismatches"`
	RPS             float64                   `json:"rps"`
	AvgLatencyMs    float64                   `json:"avg_latency_ms"`
	P99LatencyMs    float64                   `json:"p99_latency_ms"`
	ErrorRate       float64                   `json:"error_rate"`
	Commands        map[string]CommandMetrics `json:"commands,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := MetricsResponse{}
	if s.metrics != nil {
		snap := s.metrics.Snapshot()
		resp = MetricsResponse{
			TotalRequests:   snap.TotalRequests,
			SuccessRequests: snap.SuccessRequests,
			FailedRequests:  snap.FailedRequests,
			Mismatches:      snap.Mismatches,
			RPS:             snap.OverallRPS,
			AvgLatencyMs:    toMs(snap.AverageLatency),
			P99LatencyMs:    toMs(snap.P99Latency),
			ErrorRate:       snap.ErrorRate,
			Commands:        make(map[string]CommandMetrics, len(snap.Commands)),
		}
		for name, cs := range snap.Commands {
			resp.Commands[name] = CommandMetrics{
				Total:        cs.Total,
				Failed:       cs.Failed,
				Mismatches:   cs.Mismatches,
				AvgLatencyMs: toMs(cs.AverageLatency),
				P99LatencyMs: toMs(cs.P99Latency),
				MaxLatencyMs: toMs(cs.MaxLatency),
			}
		}
	}

	s.writeJSON(w, resp)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, workload.PresetDescriptions())
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// Keep connection alive
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wsClients)
}

// Message は /ws で送るメッセージ
type Message struct {
	Type   string           `json:"type"`
	Event  *events.Event    `json:"event,omitempty"`
	Status *workload.Status `json:"status,omitempty"`
}

func (s *Server) broadcast(msg Message) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// broadcastLoop はバスのイベントと実行中の状態を WebSocket クライアントへ送る
func (s *Server) broadcastLoop(ctx context.Context) {
	var ch <-chan events.Event
	if s.bus != nil {
		ch = s.bus.Subscribe()
		defer s.bus.Unsubscribe(ch)
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				ch = nil
				continue
			}
			s.broadcast(Message{Type: "event", Event: &ev})
		case <-ticker.C:
			if s.status == nil {
				continue
			}
			status := s.status.Status()
			if !status.Running {
				continue
			}
			s.broadcast(Message{Type: "status", Status: &status})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("api", "Failed to encode JSON: %v", err)
	}
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
