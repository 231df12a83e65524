// SPDX-License-Identifier: Apache-2.0

package profiling

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	rpprof "runtime/pprof"
	"time"
)

// Config controls a profiling session. An empty ServerAddress skips the
// pprof endpoint; profile files are written to Dir.
type Config struct {
	ServerAddress string
	Dir           string
}

// Session captures a CPU profile from Start until Stop, and writes an
// allocation profile when stopped.
type Session struct {
	dir     string
	cpuFile *os.File
	server  *http.Server
	addr    net.Addr
}

const (
	cpuProfileName    = "cpu.prof"
	allocsProfileName = "mem.prof"
	shutdownTimeout   = 5 * time.Second
)

func Start(cfg Config) (*Session, error) {
	s := &Session{dir: cfg.Dir}
	if s.dir == "" {
		s.dir = "."
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}

	if cfg.ServerAddress != "" {
		if err := s.serve(cfg.ServerAddress); err != nil {
			return nil, err
		}
	}

	cpuFile, err := os.Create(filepath.Join(s.dir, cpuProfileName))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating cpu profile: %w", err), s.stopServer())
	}
	if err := rpprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return nil, errors.Join(fmt.Errorf("starting cpu profile: %w", err), s.stopServer())
	}
	s.cpuFile = cpuFile
	return s, nil
}

// Stop ends the CPU profile, writes the allocation profile and shuts down
// the pprof endpoint.
func (s *Session) Stop() error {
	rpprof.StopCPUProfile()
	return errors.Join(
		s.cpuFile.Close(),
		s.writeAllocsProfile(),
		s.stopServer(),
	)
}

func (s *Session) writeAllocsProfile() error {
	f, err := os.Create(filepath.Join(s.dir, allocsProfileName))
	if err != nil {
		return fmt.Errorf("creating memory profile: %w", err)
	}
	defer f.Close()

	// up to date statistics
	runtime.GC()
	if err := rpprof.Lookup("allocs").WriteTo(f, 0); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}
	return nil
}

func (s *Session) serve(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", address, err)
	}

	s.addr = lis.Addr()
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go s.server.Serve(lis) //nolint:errcheck
	return nil
}

func (s *Session) stopServer() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
