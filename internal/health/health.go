// Package health builds the process snapshot served at /healthz.
package health

import (
	"runtime"
	"time"
)

// Options describes what the caller knows about the running server.
type Options struct {
	StartedAt time.Time
	Provider  string
	Model     string
	Answered  int64
	Failed    int64
	Rejected  int64
	Now       func() time.Time // defaults to time.Now
}

func (o Options) normalize() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is the health report.
type Snapshot struct {
	Status        string       `json:"status"`
	UptimeSeconds int64        `json:"uptimeSeconds"`
	Goroutines    int          `json:"goroutines"`
	Memory        MemoryInfo   `json:"memory"`
	Runtime       RuntimeInfo  `json:"runtime"`
	Model         *ModelInfo   `json:"model,omitempty"`
	Questions     QuestionInfo `json:"questions"`
	Timestamp     string       `json:"timestamp"`
}

// MemoryInfo holds allocator statistics in megabytes.
type MemoryInfo struct {
	AllocMB      float64 `json:"allocMB"`
	TotalAllocMB float64 `json:"totalAllocMB"`
	SysMB        float64 `json:"sysMB"`
	NumGC        uint32  `json:"numGC"`
}

type RuntimeInfo struct {
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	CPUs    int    `json:"cpus"`
}

type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// QuestionInfo counts /ask outcomes since start. Failed answers are still
// returned to the caller as text; Rejected requests got a 422.
type QuestionInfo struct {
	Answered int64 `json:"answered"`
	Failed   int64 `json:"failed"`
	Rejected int64 `json:"rejected"`
}

// Collect returns a health snapshot for the current process.
func Collect(opts Options) Snapshot {
	opts = opts.normalize()
	now := opts.Now()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Status:     "healthy",
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Runtime: RuntimeInfo{
			Version: runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			CPUs:    runtime.NumCPU(),
		},
		Questions: QuestionInfo{
			Answered: opts.Answered,
			Failed:   opts.Failed,
			Rejected: opts.Rejected,
		},
		Timestamp: now.Format(time.RFC3339),
	}

	if !opts.StartedAt.IsZero() {
		s.UptimeSeconds = int64(now.Sub(opts.StartedAt).Seconds())
	}
	if opts.Provider != "" || opts.Model != "" {
		s.Model = &ModelInfo{Provider: opts.Provider, Model: opts.Model}
	}
	// Every answer so far has failed: the provider is likely misconfigured.
	if opts.Failed > 0 && opts.Answered == 0 {
		s.Status = "degraded"
	}
	return s
}
