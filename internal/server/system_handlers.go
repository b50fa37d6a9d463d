package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStatsResponse is the body of GET /api/system
type SystemStatsResponse struct {
	CPUPercent float64 `json:"cpu_percent"`
	RAMPercent float64 `json:"ram_percent"`
	Goroutines int     `json:"goroutines"`
}

// handleSystem reports host CPU and RAM usage
// GET /api/system
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := s.stats()

	s.writeJSON(w, http.StatusOK, SystemStatsResponse{
		CPUPercent: cpuPercent,
		RAMPercent: ramPercent,
		Goroutines: runtime.NumGoroutine(),
	})
}

// getSystemStats samples CPU over 100ms and reads memory usage
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
