package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"taller-backend/internal/timeutil"
)

// Server is the internal ops dashboard: polling stats over HTTP plus a
// WebSocket feed of shop events (autosave activations, submitted
// orders, health alerts).
type Server struct {
	db   *pgxpool.Pool
	port int

	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Evento
}

// Evento is one entry on the real-time feed.
type Evento struct {
	Tipo      string    `json:"tipo"`
	Mensaje   string    `json:"mensaje"`
	SesionID  string    `json:"sesion_id,omitempty"`
	Severidad string    `json:"severidad,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is the dashboard snapshot.
type Stats struct {
	DatabaseStatus    string  `json:"database_status"`
	ActiveConnections int     `json:"active_connections"`
	ResponseTime      int64   `json:"response_time_ms"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	DiskPercent       float64 `json:"disk_percent"`
	MemoryUsed        string  `json:"memory_used"`
	MemoryTotal       string  `json:"memory_total"`
	DiskUsed          string  `json:"disk_used"`
	DiskTotal         string  `json:"disk_total"`
	DBSize            string  `json:"db_size"`
	Uptime            string  `json:"uptime"`
	ReparacionesHoy   int     `json:"reparaciones_hoy"`
	SesionesAbiertas  int     `json:"sesiones_abiertas"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionCounter reports how many wizard sessions are live. The wizard
// manager satisfies it.
type SessionCounter interface {
	Count() int
}

var sessionCounter SessionCounter

func SetSessionCounter(c SessionCounter) {
	sessionCounter = c
}

func NewServer(db *pgxpool.Pool, port int) *Server {
	return &Server{
		db:        db,
		port:      port,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Evento, 16),
	}
}

func (s *Server) Start() {
	r := mux.NewRouter()

	r.HandleFunc("/api/stats", s.getStats).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket)

	go s.handleBroadcast()
	go s.monitorHealth()

	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("[Monitoring] Dashboard running on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// Publish pushes an event to every connected dashboard. Non-blocking;
// the feed drops events when the channel is full.
func (s *Server) Publish(evt Evento) {
	evt.Timestamp = timeutil.Now()
	select {
	case s.broadcast <- evt:
	default:
	}
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats := s.collectStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) collectStats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := s.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	dbStatus := "healthy"
	if err != nil {
		dbStatus = "unhealthy"
	}

	var activeConns int
	s.db.QueryRow(ctx, "SELECT count(*) FROM pg_stat_activity").Scan(&activeConns)

	var dbSizeBytes int64
	s.db.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&dbSizeBytes)

	var uptimeSec int
	s.db.QueryRow(ctx, "SELECT EXTRACT(EPOCH FROM (NOW() - pg_postmaster_start_time()))::int").Scan(&uptimeSec)

	var reparacionesHoy int
	s.db.QueryRow(ctx,
		"SELECT count(*) FROM reparaciones WHERE created_at >= date_trunc('day', NOW())").Scan(&reparacionesHoy)

	cpuPercents, _ := cpu.Percent(time.Second, false)
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	sesiones := 0
	if sessionCounter != nil {
		sesiones = sessionCounter.Count()
	}

	return Stats{
		DatabaseStatus:    dbStatus,
		ActiveConnections: activeConns,
		ResponseTime:      responseTime,
		CPUPercent:        cpuPercent,
		MemoryPercent:     memStats.UsedPercent,
		DiskPercent:       diskStats.UsedPercent,
		MemoryUsed:        formatBytes(memStats.Used),
		MemoryTotal:       formatBytes(memStats.Total),
		DiskUsed:          formatBytes(diskStats.Used),
		DiskTotal:         formatBytes(diskStats.Total),
		DBSize:            fmt.Sprintf("%.2f GB", float64(dbSizeBytes)/(1024*1024*1024)),
		Uptime:            formatUptime(uptimeSec),
		ReparacionesHoy:   reparacionesHoy,
		SesionesAbiertas:  sesiones,
	}
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(seconds int) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Monitoring] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	s.clientsMux.Lock()
	s.clients[conn] = true
	s.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.clientsMux.Lock()
			delete(s.clients, conn)
			s.clientsMux.Unlock()
			break
		}
	}
}

func (s *Server) handleBroadcast() {
	for evt := range s.broadcast {
		s.clientsMux.Lock()
		for client := range s.clients {
			if err := client.WriteJSON(evt); err != nil {
				client.Close()
				delete(s.clients, client)
			}
		}
		s.clientsMux.Unlock()
	}
}

func (s *Server) monitorHealth() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := s.collectStats()

		if stats.DatabaseStatus == "unhealthy" {
			s.Publish(Evento{
				Tipo:      "database_down",
				Severidad: "critical",
				Mensaje:   "Database is unreachable",
			})
		}
		if stats.ResponseTime > 1000 {
			s.Publish(Evento{
				Tipo:      "high_latency",
				Severidad: "warning",
				Mensaje:   fmt.Sprintf("Database response time: %dms", stats.ResponseTime),
			})
		}
	}
}
