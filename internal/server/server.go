// internal/server/server.go
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"device-service/internal/job"
)

// Server is the Connection Multiplexer (§4.8): a TCP accept loop that
// dispatches each connection to its own goroutine, serializing scale and
// printer serial access behind a single mutex the way the original
// driver's weight_mutex serialized its per-connection pthreads.
type Server struct {
	addr   string
	orch   *job.Orchestrator
	logger *zap.Logger

	scaleMutex sync.Mutex

	listener net.Listener

	activeConns  int64
	totalJobs    int64
	recentJobsMu sync.Mutex
	recentJobs   []JobRecord

	onJobComplete func(slot int, result string)
}

// JobRecord is one completed job, kept for the admin surface's recent-jobs
// view.
type JobRecord struct {
	Slot   int
	Result string
}

const maxRecentJobs = 50

// New returns a Server bound to addr (":8888" by default per §6).
func New(addr string, orch *job.Orchestrator, logger *zap.Logger) *Server {
	return &Server{addr: addr, orch: orch, logger: logger}
}

// OnJobComplete registers a callback invoked after every finished print job,
// used to bridge job completions to the admin surface's websocket feed.
func (s *Server) OnJobComplete(fn func(slot int, result string)) {
	s.onJobComplete = fn
}

// ListenAndServe opens the listener and accepts connections until ctx is
// canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.logger.Info("label server listening", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.logger.Error("accept failed", zap.Error(err))
				return err
			}
		}
		atomic.AddInt64(&s.activeConns, 1)
		go s.handleConn(conn)
	}
}

// ActiveConnections reports the current connection count for the admin
// surface's counters endpoint.
func (s *Server) ActiveConnections() int64 {
	return atomic.LoadInt64(&s.activeConns)
}

// TotalJobs reports the lifetime job count.
func (s *Server) TotalJobs() int64 {
	return atomic.LoadInt64(&s.totalJobs)
}

// RecentJobs returns the most recent completed jobs, newest first.
func (s *Server) RecentJobs() []JobRecord {
	s.recentJobsMu.Lock()
	defer s.recentJobsMu.Unlock()
	out := make([]JobRecord, len(s.recentJobs))
	copy(out, s.recentJobs)
	return out
}

func (s *Server) recordJob(rec JobRecord) {
	atomic.AddInt64(&s.totalJobs, 1)
	s.recentJobsMu.Lock()
	s.recentJobs = append([]JobRecord{rec}, s.recentJobs...)
	if len(s.recentJobs) > maxRecentJobs {
		s.recentJobs = s.recentJobs[:maxRecentJobs]
	}
	s.recentJobsMu.Unlock()

	if s.onJobComplete != nil {
		s.onJobComplete(rec.Slot, rec.Result)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		conn.Close()
		atomic.AddInt64(&s.activeConns, -1)
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		cmd := strings.TrimSpace(line)
		if cmd == "" {
			if err != nil {
				return
			}
			continue
		}

		s.scaleMutex.Lock()

		if cmd == "MODE:PRINTER" {
			s.handlePrinterMode(conn, reader)
			s.scaleMutex.Unlock()
			return
		}

		reply, procErr := s.orch.RunScaleCommand(cmd)
		s.scaleMutex.Unlock()
		if procErr != nil {
			s.logger.Error("scale command failed", zap.String("cmd", cmd), zap.Error(procErr))
			conn.Write([]byte("Error: scale unavailable\n"))
		} else {
			conn.Write([]byte(reply.Text))
		}

		if err != nil {
			return
		}
	}
}

// handlePrinterMode consumes the three lines following MODE:PRINTER (job
// document path, template slot, barcode selector id) and runs the job,
// matching handle_client's MODE:PRINTER block, which ends the connection's
// read loop after one job.
func (s *Server) handlePrinterMode(conn net.Conn, reader *bufio.Reader) {
	docPath, err1 := readTrimmedLine(reader)
	slotStr, err2 := readTrimmedLine(reader)
	_, err3 := readTrimmedLine(reader) // barcode selector id, read and discarded

	if err1 != nil || err2 != nil || err3 != nil || docPath == "" || slotStr == "" {
		conn.Write([]byte("Error: printer args missing\n"))
		return
	}

	slot := atoiSafe(slotStr)
	docBytes, err := readJobDocument(docPath)
	if err != nil {
		s.logger.Error("failed to read job document", zap.String("path", docPath), zap.Error(err))
		conn.Write([]byte("Error printing\n"))
		return
	}

	reply, err := s.orch.RunPrintJob(job.Envelope{JobDocumentPath: docPath, TemplateSlot: slot}, docBytes)
	s.recordJob(JobRecord{Slot: slot, Result: reply})
	if err != nil {
		s.logger.Error("print job failed", zap.String("path", docPath), zap.Int("slot", slot), zap.Error(err))
	}
	conn.Write([]byte(reply + "\n"))
}

func readJobDocument(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func readTrimmedLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	return strings.TrimSpace(line), err
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
