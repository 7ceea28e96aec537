package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mkarlis/riskfolio/internal/clients/marketdata"
	"github.com/mkarlis/riskfolio/internal/database"
	"github.com/mkarlis/riskfolio/internal/reliability"
)

// StreamStatus exposes the live quote stream and its cache. A nil value
// means no stream is configured.
type StreamStatus interface {
	IsConnected() bool
	IsStale() bool
	LastQuote(symbol string) (marketdata.Quote, bool)
	Snapshot() map[string]marketdata.Quote
}

// SystemHandlers serves monitoring and maintenance endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	databases   map[string]*database.DB
	backups     *reliability.S3BackupService
	stream      StreamStatus
}

// NewSystemHandlers creates system monitoring handlers.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases map[string]*database.DB,
	backups *reliability.S3BackupService,
	stream StreamStatus,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		databases:   databases,
		backups:     backups,
		stream:      stream,
	}
}

// RegisterRoutes registers system routes on the router.
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/health", h.HandleHealthCheck)
		r.Get("/database/stats", h.HandleDatabaseStats)
		r.Get("/disk", h.HandleDiskUsage)
		r.Get("/quotes", h.HandleQuotes)
		r.Post("/wal-checkpoint", h.HandleWALCheckpoint)
		r.Post("/backup", h.HandleTriggerBackup)
		r.Get("/backups", h.HandleListBackups)
	})
}

// SystemStatusResponse describes overall process health.
type SystemStatusResponse struct {
	Status          string  `json:"status"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	StreamConnected *bool   `json:"stream_connected,omitempty"`
	StreamStale     *bool   `json:"stream_stale,omitempty"`
	Timestamp       string  `json:"timestamp"`
}

// HandleSystemStatus returns process uptime and resource usage.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		Timestamp:     time.Now().Format(time.RFC3339),
	}
	if h.stream != nil {
		connected := h.stream.IsConnected()
		stale := h.stream.IsStale()
		response.StreamConnected = &connected
		response.StreamStale = &stale
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleQuotes returns the cached live quotes, optionally filtered to a
// single symbol with ?symbol=.
// GET /api/system/quotes
func (h *SystemHandlers) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		http.Error(w, "quote stream is not configured", http.StatusNotImplemented)
		return
	}

	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		quote, ok := h.stream.LastQuote(symbol)
		if !ok {
			http.Error(w, "no quote cached for symbol", http.StatusNotFound)
			return
		}
		h.writeJSON(w, http.StatusOK, quote)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"quotes":    h.stream.Snapshot(),
		"connected": h.stream.IsConnected(),
		"stale":     h.stream.IsStale(),
	})
}

// HandleHealthCheck runs an integrity check on every database.
// GET /api/system/health
func (h *SystemHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.databases))
	healthy := true
	for name, db := range h.databases {
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", name).Msg("Database integrity check failed")
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	h.writeJSON(w, status, map[string]interface{}{
		"status":    overall,
		"databases": results,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// DBInfo describes one database file.
type DBInfo struct {
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	SizeMB     float64 `json:"size_mb"`
	WALSizeMB  float64 `json:"wal_size_mb"`
	PageCount  int64   `json:"page_count"`
	FreelistMB float64 `json:"freelist_mb"`
}

// DatabaseStatsResponse aggregates stats across databases.
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// HandleDatabaseStats returns file and page statistics for each database.
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	infos := make([]DBInfo, 0, len(h.databases))
	totalSizeMB := 0.0

	for name, db := range h.databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Failed to get database stats")
			continue
		}
		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		totalSizeMB += sizeMB
		infos = append(infos, DBInfo{
			Name:       name,
			Path:       db.Path(),
			SizeMB:     sizeMB,
			WALSizeMB:  float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount:  stats.PageCount,
			FreelistMB: float64(stats.FreelistCount*stats.PageSize) / 1024 / 1024,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Databases:   infos,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// DiskUsageResponse describes on-disk footprint of the data directory.
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	LogsDirMB float64 `json:"logs_dir_mb"`
	TotalMB   float64 `json:"total_mb"`
}

// HandleDiskUsage returns disk usage statistics.
// GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	dataDirSize := h.getDirSize(h.dataDir)
	logsDirSize := h.getDirSize(filepath.Join(h.dataDir, "logs"))

	h.writeJSON(w, http.StatusOK, DiskUsageResponse{
		DataDirMB: dataDirSize,
		LogsDirMB: logsDirSize,
		TotalMB:   dataDirSize + logsDirSize,
	})
}

// HandleWALCheckpoint forces a WAL checkpoint on every database.
// POST /api/system/wal-checkpoint
func (h *SystemHandlers) HandleWALCheckpoint(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]string, len(h.databases))
	for name, db := range h.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			h.log.Error().Err(err).Str("database", name).Msg("WAL checkpoint failed")
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"databases": results})
}

// HandleTriggerBackup creates and uploads a backup immediately.
// POST /api/system/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		http.Error(w, "backups are not configured", http.StatusNotImplemented)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	if err := h.backups.CreateAndUploadBackup(ctx); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "completed",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleListBackups lists backups stored in the cloud bucket.
// GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		http.Error(w, "backups are not configured", http.StatusNotImplemented)
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"backups": backups})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a short sampling interval so the status endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
