package resolver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// DefaultWorkers is the resolver's default worker thread count.
const DefaultWorkers = 4

// maxPacketSize is generous enough for any EDNS0-sized UDP DNS datagram.
const maxPacketSize = 4096

// Server runs the resolver as a pool of worker goroutines consuming DNS
// queries off a shared UDP listener, adapted from a TCP/HTTP listener's
// Start/Stop lifecycle over net.Listener to a connectionless
// net.PacketConn and a fixed worker
// pool instead of one-goroutine-per-connection, since the resolver's unit
// of work is a single UDP datagram, not a long-lived connection.
type Server struct {
	resolver *Resolver
	addr     string
	workers  int
	logger   *slog.Logger

	conn   *net.UDPConn
	queue  chan packetJob
	wg     sync.WaitGroup
	closed atomic.Bool
}

type packetJob struct {
	addr *net.UDPAddr
	data []byte
}

// NewServer builds a Server listening on addr (e.g. "0.0.0.0:53") with the
// given number of worker goroutines; a non-positive workers falls back to
// DefaultWorkers.
func NewServer(r *Resolver, addr string, workers int, logger *slog.Logger) *Server {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		resolver: r,
		addr:     addr,
		workers:  workers,
		logger:   logger.With("component", "resolver-server"),
		queue:    make(chan packetJob, workers*4),
	}
}

// Start binds the UDP socket and launches the worker pool; it returns
// once the socket is bound, reading and worker goroutines run in the
// background.
func (s *Server) Start() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	s.wg.Add(1)
	go s.readLoop()

	s.logger.Info("resolver listening", "addr", conn.LocalAddr().String(), "workers", s.workers)
	return nil
}

// readLoop is the single suspension point that reads datagrams off the
// socket and hands each to the worker pool.
func (s *Server) readLoop() {
	defer s.wg.Done()
	buf := make([]byte, maxPacketSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Warn("udp read error", "error", err)
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case s.queue <- packetJob{addr: addr, data: data}:
		default:
			s.logger.Warn("query queue full, dropping packet", "from", addr)
		}
	}
}

// worker consumes queries from the shared queue to completion, one at a
// time; the graph pipeline is single-threaded and CPU-bound, so each
// worker processes one query fully before taking the next.
func (s *Server) worker() {
	defer s.wg.Done()
	for job := range s.queue {
		reply := s.resolver.Resolve(context.Background(), job.data)
		if reply == nil {
			continue
		}
		if _, err := s.conn.WriteToUDP(reply, job.addr); err != nil {
			s.logger.Warn("udp write error", "to", job.addr, "error", err)
		}
	}
}

// Stop closes the listener and drains the worker pool.
func (s *Server) Stop(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
	}
	close(s.queue)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the server's bound listen address, or "" if not started.
func (s *Server) Addr() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.LocalAddr().String()
}
