// Package healthsample periodically samples this process's own CPU and
// memory usage and publishes them to the metrics registry, grounded on
// the teacher's LoadHistoryTracker (load_history.go) ticker/stopChan/wg
// lifecycle, swapping its system-load sampling for a per-process one via
// gopsutil's process package.
package healthsample

import (
	"log"
	"os"
	"sync"
	"time"

	gopsprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/cwsl/radescan-driver/internal/metrics"
)

const sampleInterval = 30 * time.Second

// Sampler periodically refreshes radescan_process_cpu_percent and
// radescan_process_rss_bytes. Failures to sample are logged and skipped,
// never fatal, since this is purely observational.
type Sampler struct {
	reg    *metrics.Registry
	logger *log.Logger
	proc   *gopsprocess.Process

	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// New builds a Sampler bound to this process's PID.
func New(reg *metrics.Registry, logger *log.Logger) (*Sampler, error) {
	proc, err := gopsprocess.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Sampler{reg: reg, logger: logger, proc: proc, stopChan: make(chan struct{})}, nil
}

// Start begins the sampling loop.
func (s *Sampler) Start() {
	if s.running {
		return
	}
	s.running = true
	s.ticker = time.NewTicker(sampleInterval)

	s.wg.Add(1)
	go s.loop()
}

// Stop halts the sampling loop and waits for it to exit.
func (s *Sampler) Stop() {
	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
	s.ticker.Stop()
	s.wg.Wait()
}

func (s *Sampler) loop() {
	defer s.wg.Done()
	s.sampleOnce()
	for {
		select {
		case <-s.stopChan:
			return
		case <-s.ticker.C:
			s.sampleOnce()
		}
	}
}

func (s *Sampler) sampleOnce() {
	pct, err := s.proc.CPUPercent()
	if err != nil {
		s.logger.Printf("healthsample: cpu percent: %v", err)
	} else {
		s.reg.ProcessCPUPercent.Set(pct)
	}

	mem, err := s.proc.MemoryInfo()
	if err != nil {
		s.logger.Printf("healthsample: memory info: %v", err)
		return
	}
	s.reg.ProcessRSSBytes.Set(float64(mem.RSS))
}
