// Package rendezvous implements the connect-back handshake with the
// inverter datalogger: a UDP announcement tells the datalogger to dial
// this host, the resulting TCP connection carries one Modbus RTU exchange.
package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is the outcome of a completed exchange.
type Result struct {
	SessionID string
	Ack       []byte // UDP acknowledgement, nil if the device stayed silent
	AckFrom   string
	Peer      string
	Request   []byte
	Response  []byte
}

// Session is a single-use handshake with one datalogger.
type Session struct {
	id       uuid.UUID
	deviceIP string
	localIP  string
	cfg      Config
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

func NewSession(deviceIP, localIP string, cfg Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()

	return &Session{
		id:       id,
		deviceIP: deviceIP,
		localIP:  localIP,
		cfg:      cfg.withDefaults(),
		logger: logger.With(
			zap.String("session", id.String()),
			zap.String("device", deviceIP)),
		state: StateIdle,
	}
}

// ID returns the session id used in log lines.
func (s *Session) ID() string {
	return s.id.String()
}

// State returns the current handshake state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidateTransition(s.state, to); err != nil {
		return err
	}
	s.logger.Debug("Handshake state change",
		zap.String("from", string(s.state)),
		zap.String("to", string(to)))
	s.state = to
	return nil
}

func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		s.state = StateFailed
	}
}

// AnnouncePayload is the datagram that redirects the datalogger's
// reporting server to host:port.
func AnnouncePayload(host string, port int) []byte {
	return []byte(fmt.Sprintf("set>server=%s:%d;", host, port))
}

// Exchange announces this host to the datalogger, accepts exactly one
// inbound connection, writes request and returns the first chunk read
// back. All sockets are released before it returns.
func (s *Session) Exchange(ctx context.Context, request []byte) (*Result, error) {
	if len(request) == 0 {
		return nil, fmt.Errorf("%w: empty request", modbus.ErrInvalidArgument)
	}
	if st := s.State(); st != StateIdle {
		return nil, fmt.Errorf("%w: session already used (state %s)", modbus.ErrInvalidArgument, st)
	}

	result, err := s.exchange(ctx, request)
	if err != nil {
		s.fail()
		s.logger.Error("Handshake failed", zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (s *Session) exchange(ctx context.Context, request []byte) (*Result, error) {
	result := &Result{
		SessionID: s.ID(),
		Request:   request,
	}

	ack, ackFrom, err := s.announce(ctx)
	if err != nil {
		return nil, err
	}
	result.Ack, result.AckFrom = ack, ackFrom
	if err := s.setState(StateAnnounced); err != nil {
		return nil, err
	}

	ln, err := s.listen(ctx)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	if err := s.setState(StateListening); err != nil {
		return nil, err
	}

	conn, err := s.accept(ctx, ln)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	result.Peer = conn.RemoteAddr().String()
	if err := s.setState(StateConnected); err != nil {
		return nil, err
	}

	response, err := s.roundTrip(ctx, conn, request)
	if err != nil {
		return nil, err
	}
	result.Response = response
	if err := s.setState(StateExchanged); err != nil {
		return nil, err
	}

	// Verbindung und Listener schließen, bevor Closed gemeldet wird
	conn.Close()
	ln.Close()
	if err := s.setState(StateClosed); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Session) announce(ctx context.Context) ([]byte, string, error) {
	target, err := net.ResolveUDPAddr("udp4",
		net.JoinHostPort(s.deviceIP, strconv.Itoa(s.cfg.DiscoveryPort)))
	if err != nil {
		return nil, "", fmt.Errorf("%w: resolve device address: %w", modbus.ErrConnection, err)
	}

	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return nil, "", fmt.Errorf("%w: open udp socket: %w", modbus.ErrConnection, err)
	}
	defer pc.Close()

	payload := AnnouncePayload(s.localIP, s.cfg.DataPort)
	if _, err := pc.WriteTo(payload, target); err != nil {
		return nil, "", fmt.Errorf("%w: send announcement: %w", modbus.ErrConnection, err)
	}

	s.logger.Info("UDP announcement sent",
		zap.String("target", target.String()),
		zap.ByteString("payload", payload))

	// Bestätigung abwarten, begrenzt durch Timeout und Context
	deadline := time.Now().Add(s.cfg.UDPAckTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	pc.SetReadDeadline(deadline)

	buf := make([]byte, s.cfg.ReadBufferSize)
	n, from, err := pc.ReadFrom(buf)
	if ctx.Err() != nil {
		return nil, "", s.stageError(ctx, "announce", ctx.Err())
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			s.logger.Info("No UDP reply (this is normal if the device does not answer)")
		} else {
			s.logger.Warn("UDP reply wait failed", zap.Error(err))
		}
		return nil, "", nil
	}

	s.logger.Info("UDP reply received",
		zap.String("from", from.String()),
		zap.ByteString("data", buf[:n]))

	return buf[:n], from.String(), nil
}

func (s *Session) listen(ctx context.Context) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	addr := net.JoinHostPort(s.cfg.ListenAddress, strconv.Itoa(s.cfg.DataPort))

	ln, err := lc.Listen(ctx, "tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen on %s: %w", modbus.ErrConnection, addr, err)
	}

	s.logger.Info("TCP server running, waiting for inverter to connect",
		zap.String("address", ln.Addr().String()))

	return ln, nil
}

func (s *Session) accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	if s.cfg.AcceptTimeout > 0 {
		if tl, ok := ln.(*net.TCPListener); ok {
			tl.SetDeadline(time.Now().Add(s.cfg.AcceptTimeout))
		}
	}

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		return nil, s.stageError(ctx, "accept", err)
	}

	s.logger.Info("TCP connection established",
		zap.String("peer", conn.RemoteAddr().String()))

	return conn, nil
}

func (s *Session) roundTrip(ctx context.Context, conn net.Conn, request []byte) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	// Timeout setzen
	if s.cfg.ReadTimeout > 0 {
		conn.SetDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	s.logger.Info("Sending Modbus command",
		zap.String("frame", modbus.FormatHex(request)))

	if _, err := conn.Write(request); err != nil {
		return nil, s.stageError(ctx, "write", err)
	}

	buf := make([]byte, s.cfg.ReadBufferSize)
	n, err := conn.Read(buf)
	if n > 0 {
		s.logger.Debug("Response received",
			zap.Int("bytes", n),
			zap.String("frame", modbus.FormatHex(buf[:n])))
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: peer closed the connection without responding", modbus.ErrConnection)
	}
	return nil, s.stageError(ctx, "read", err)
}

// stageError classifies a socket error by the stage it happened in.
func (s *Session) stageError(ctx context.Context, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s: %w", modbus.ErrTimeout, stage, ctxErr)
		}
		return fmt.Errorf("%w: %s cancelled: %w", modbus.ErrConnection, stage, ctxErr)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %w", modbus.ErrTimeout, stage, err)
	}
	return fmt.Errorf("%w: %s failed: %w", modbus.ErrConnection, stage, err)
}
