// Package stream is the agent's thin diagnostic surface: a WebSocket feed
// that pushes one frame per analysis pass, a few JSON endpoints over the
// core's read-only outputs and the Prometheus metrics handler. The core
// never depends on this package.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/collector"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/insight"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/trend"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

const writeTimeout = 10 * time.Second

// Frame is one WebSocket push, emitted per analysis pass.
type Frame struct {
	Snapshot     *model.Snapshot     `json:"snapshot"`
	Insights     []model.Insight     `json:"insights"`
	Status       model.Status        `json:"status"`
	Anomalies    []model.Anomaly     `json:"anomalies,omitempty"`
	Correlations []model.Correlation `json:"correlations,omitempty"`
}

// Server serves the diagnostic HTTP/WebSocket endpoints.
type Server struct {
	logger    *logger.Logger
	addr      string
	collector *collector.Collector
	insights  *insight.Engine
	trends    *trend.Analyzer

	upgrader   websocket.Upgrader
	httpServer *http.Server

	mutex   sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewServer 创建诊断服务
func NewServer(addr string, c *collector.Collector, e *insight.Engine, t *trend.Analyzer, logger *logger.Logger) *Server {
	return &Server{
		logger:    logger,
		addr:      addr,
		collector: c,
		insights:  e,
		trends:    t,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	router := mux.NewRouter()
	router.HandleFunc("/ws", s.handleWS)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/api/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/insights", s.handleInsights).Methods(http.MethodGet)
	router.HandleFunc("/api/insights/history", s.handleInsightHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/trends/daily", s.handleDailyPattern).Methods(http.MethodGet)
	router.HandleFunc("/api/trends/weekly", s.handleWeeklyPattern).Methods(http.MethodGet)
	router.HandleFunc("/api/trends/peaks", s.handlePeakHours).Methods(http.MethodGet)
	router.HandleFunc("/api/trends/leaks", s.handleLeaks).Methods(http.MethodGet)
	router.HandleFunc("/api/trends/anomalies", s.handleTrendAnomalies).Methods(http.MethodGet)
	router.HandleFunc("/api/trends/forecast", s.handleForecast).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Diagnostic server listening on %s", s.addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Diagnostic server failed: %v", err)
		}
	}()

	return nil
}

// Stop shuts the server down and closes every WebSocket client.
func (s *Server) Stop() {
	s.mutex.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mutex.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("Diagnostic server shutdown: %v", err)
		}
	}
}

// Broadcast pushes one frame to every connected client. Clients that fail
// a write are dropped.
func (s *Server) Broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		s.logger.Warn("Failed to marshal stream frame: %v", err)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("Dropping slow stream client: %v", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed: %v", err)
		return
	}

	s.mutex.Lock()
	s.clients[conn] = true
	count := len(s.clients)
	s.mutex.Unlock()

	s.logger.Info("Stream client connected (%d total)", count)

	go s.readLoop(conn)
}

// readLoop drains and discards client messages so pings are answered; the
// feed is one-directional.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mutex.Lock()
		delete(s.clients, conn)
		s.mutex.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.collector.Latest())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.collector.History())
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.insights.Latest())
}

func (s *Server) handleInsightHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.insights.History())
}

func (s *Server) handleDailyPattern(w http.ResponseWriter, r *http.Request) {
	metric, days := trendParams(r)
	points, err := s.trends.DailyPattern(metric, days)
	if err != nil {
		// Read failures degrade to an empty result.
		s.logger.Warn("Daily pattern query failed: %v", err)
	}
	writeJSON(w, points)
}

func (s *Server) handleWeeklyPattern(w http.ResponseWriter, r *http.Request) {
	metric, _ := trendParams(r)
	weeks := intParam(r, "weeks", 4)
	points, err := s.trends.WeeklyPattern(metric, weeks)
	if err != nil {
		s.logger.Warn("Weekly pattern query failed: %v", err)
	}
	writeJSON(w, points)
}

func (s *Server) handlePeakHours(w http.ResponseWriter, r *http.Request) {
	metric, days := trendParams(r)
	peaks, err := s.trends.PeakHours(metric, days)
	if err != nil {
		s.logger.Warn("Peak hours query failed: %v", err)
	}
	writeJSON(w, peaks)
}

func (s *Server) handleLeaks(w http.ResponseWriter, r *http.Request) {
	metric := metricParam(r, model.MetricMemoryUsage)
	days := intParam(r, "days", 14)
	suspect, err := s.trends.DetectMemoryGrowth(metric, days)
	if err != nil {
		s.logger.Warn("Leak detection query failed: %v", err)
	}
	if suspect == nil {
		writeJSON(w, []model.LeakSuspect{})
		return
	}
	writeJSON(w, []model.LeakSuspect{*suspect})
}

func (s *Server) handleTrendAnomalies(w http.ResponseWriter, r *http.Request) {
	metric, days := trendParams(r)
	anomalies, err := s.trends.DetectAnomalies(metric, days)
	if err != nil {
		s.logger.Warn("Trend anomaly query failed: %v", err)
	}
	writeJSON(w, anomalies)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	metric, days := trendParams(r)
	forecast, err := s.trends.Forecast(metric, days)
	if err != nil {
		s.logger.Warn("Forecast query failed: %v", err)
	}
	if forecast == nil {
		// Not enough history yet is a normal, quiet state.
		writeJSON(w, map[string]string{"status": "not enough history yet"})
		return
	}
	writeJSON(w, forecast)
}

func trendParams(r *http.Request) (metric string, days int) {
	return metricParam(r, model.MetricCPUUsage), intParam(r, "days", 7)
}

func metricParam(r *http.Request, fallback string) string {
	if m := r.URL.Query().Get("metric"); m != "" {
		return m
	}
	return fallback
}

func intParam(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		w.Write([]byte("null"))
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
