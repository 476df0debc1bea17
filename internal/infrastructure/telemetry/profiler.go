package telemetry

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig holds the Pyroscope continuous profiling settings.
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
	// Optional basic auth, used by hosted Pyroscope
	BasicAuthUser     string
	BasicAuthPassword string

	CPU        bool
	Allocs     bool
	InUse      bool
	Goroutines bool
	// Mutex and Block turn on runtime sampling
	Mutex bool
	Block bool
	// SampleRate is passed to SetMutexProfileFraction and SetBlockProfileRate
	SampleRate int
}

// DefaultProfilerConfig profiles CPU, heap and goroutines. It is enabled
// whenever a server address is set.
func DefaultProfilerConfig(serverAddress, applicationName string) ProfilerConfig {
	return ProfilerConfig{
		Enabled:         serverAddress != "",
		ServerAddress:   serverAddress,
		ApplicationName: applicationName,
		CPU:             true,
		Allocs:          true,
		InUse:           true,
		Goroutines:      true,
		SampleRate:      5,
	}
}

// Profiler wraps the Pyroscope session.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	mu       sync.Mutex
	stopped  bool
}

// NewProfiler starts a Pyroscope session. A disabled config yields a
// profiler whose Stop does nothing.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, errors.New("profiler server address is required")
	}
	if cfg.ApplicationName == "" {
		return nil, errors.New("profiler application name is required")
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 5
	}
	if cfg.Mutex {
		runtime.SetMutexProfileFraction(rate)
	}
	if cfg.Block {
		runtime.SetBlockProfileRate(rate)
	}

	types := profileTypes(cfg)
	if len(types) == 0 {
		logger.Warn("No profile types selected")
	}

	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}
	if pod := os.Getenv("POD_NAME"); pod != "" {
		tags["pod"] = pod
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            logger.Named("pyroscope").Sugar(),
		Tags:              tags,
		ProfileTypes:      types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start pyroscope profiler: %w", err)
	}
	p.profiler = session

	logger.Info("Continuous profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

func profileTypes(cfg ProfilerConfig) []pyroscope.ProfileType {
	var types []pyroscope.ProfileType
	add := func(on bool, t ...pyroscope.ProfileType) {
		if on {
			types = append(types, t...)
		}
	}
	add(cfg.CPU, pyroscope.ProfileCPU)
	add(cfg.Allocs, pyroscope.ProfileAllocObjects, pyroscope.ProfileAllocSpace)
	add(cfg.InUse, pyroscope.ProfileInuseObjects, pyroscope.ProfileInuseSpace)
	add(cfg.Goroutines, pyroscope.ProfileGoroutines)
	add(cfg.Mutex, pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration)
	add(cfg.Block, pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration)
	return types
}

// IsEnabled reports whether a session is running.
func (p *Profiler) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profiler != nil && !p.stopped
}

// Stop flushes and ends the session. Later calls do nothing.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.profiler == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true

	if err := p.profiler.Stop(); err != nil {
		return fmt.Errorf("failed to stop profiler: %w", err)
	}
	p.logger.Info("Profiler stopped")
	return nil
}
