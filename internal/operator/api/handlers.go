package api

import (
	"net/http"
	"runtime"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/mem"
)

type systemStatus struct {
	Goroutines    int     `json:"goroutines"`
	MemoryUsed    uint64  `json:"memory_used_bytes,omitempty"`
	MemoryPercent float64 `json:"memory_used_percent,omitempty"`
}

func (s *Server) handleStatus(c *gin.Context) {
	system := systemStatus{Goroutines: runtime.NumGoroutine()}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		system.MemoryUsed = vmStat.Used
		system.MemoryPercent = vmStat.UsedPercent
	}

	resp := gin.H{
		"status": "ok",
		"node":   s.deps.Info,
		"system": system,
	}
	if s.deps.Dispatcher != nil {
		resp["dispatcher_state"] = s.deps.Dispatcher.State().String()
	}
	if s.deps.Metrics != nil {
		resp["uptime_seconds"] = int64(s.deps.Metrics.Uptime().Seconds())
	}
	if s.deps.Outcomes != nil {
		resp["outcomes"] = s.deps.Outcomes.Counts()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.deps.Gatherer == nil {
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
		return
	}
	promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleListOutcomes(c *gin.Context) {
	if s.deps.Outcomes == nil {
		c.JSON(http.StatusOK, gin.H{"outcomes": []interface{}{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": s.deps.Outcomes.List()})
}

func (s *Server) handleGetOutcome(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task index"})
		return
	}
	if s.deps.Outcomes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task outcome not found"})
		return
	}
	outcome, ok := s.deps.Outcomes.Get(uint32(index))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task outcome not found"})
		return
	}
	c.JSON(http.StatusOK, outcome)
}
