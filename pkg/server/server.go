// Package server is the TCP front end that accepts client connections,
// performs the handshake, and dispatches commands against a registry,
// mirroring original_source/src/luxdb/server.go's asyncio.Server.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/sacovo/vectord/pkg/codec"
	"github.com/sacovo/vectord/pkg/command"
	"github.com/sacovo/vectord/pkg/log"
	"github.com/sacovo/vectord/pkg/vdberr"
)

// State is one stage of the server's lifecycle.
type State int32

const (
	Created State = iota
	Listening
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Listening:
		return "listening"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Server accepts TCP connections on host:port, decrypts and decodes a
// command from each frame, executes it against reg, and writes back the
// encrypted, framed result — until the connection's close sentinel or a
// transport error.
type Server struct {
	host string
	port int

	token *codec.Token
	reg   command.Registry

	listener net.Listener
	wg       sync.WaitGroup
	state    atomic.Int32

	log zerolog.Logger
}

// New creates a server bound to host:port (port 0 picks an ephemeral
// port), authenticating connections with token and dispatching commands
// to reg.
func New(host string, port int, token *codec.Token, reg command.Registry) *Server {
	return &Server{
		host:  host,
		port:  port,
		token: token,
		reg:   reg,
		log:   log.WithComponent("server"),
	}
}

// State reports the server's current lifecycle stage.
func (s *Server) State() State { return State(s.state.Load()) }

// Addr returns the bound listener's address. Valid only after Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Listen opens the TCP listener without accepting connections yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.listener = ln
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}
	s.state.Store(int32(Listening))
	return nil
}

// Serve accepts connections until Shutdown is called or the listener
// fails. If Listen has not been called yet, Serve calls it first.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.log.Info().Str("addr", s.listener.Addr().String()).Msg("serving")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.State() == Draining || s.State() == Closed {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Shutdown stops accepting new connections and waits for every accepted
// connection's handler to return. It does not close open connections: a
// handler returns only when its peer sends the close sentinel or the
// transport fails, so an idle client that keeps its connection open keeps
// Shutdown waiting.
func (s *Server) Shutdown() {
	s.state.Store(int32(Draining))
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	s.state.Store(int32(Closed))
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connLog := log.WithConn(conn.RemoteAddr().String())
	c := codec.NewConn(conn, s.token)

	if !s.handshake(c, connLog) {
		return
	}

	for {
		v, err := c.Receive()
		if err != nil {
			if errors.Is(err, codec.ErrClosed) {
				return
			}
			connLog.Debug().Err(err).Msg("closing connection after transport error")
			return
		}

		var result command.Result
		if cmd, ok := v.(command.Command); ok {
			result = command.Dispatch(cmd, s.reg, connLog)
		} else {
			result = command.Result{State: command.Failed, Data: &vdberr.NotACommand{Obj: v}}
		}

		if err := c.Send(result); err != nil {
			connLog.Debug().Err(err).Msg("failed to send result")
			return
		}
	}
}

// handshake reads the first frame, which must decode to a ConnectCommand,
// and echoes its payload back. An invalid token on this first frame sends
// the close sentinel and drops the connection without attempting any
// further I/O, since the shared secret itself may be wrong.
func (s *Server) handshake(c *codec.Conn, connLog zerolog.Logger) bool {
	v, err := c.Receive()
	if err != nil {
		var invalidToken *vdberr.InvalidToken
		if errors.As(err, &invalidToken) {
			connLog.Warn().Msg("invalid token on handshake, closing connection")
			c.Close()
		}
		return false
	}

	connectCmd, ok := v.(*command.ConnectCommand)
	if !ok {
		connLog.Warn().Msg("first frame was not a connect command, closing connection")
		return false
	}

	result := command.Result{State: command.Succeeded, Data: connectCmd.Payload}
	if err := c.Send(result); err != nil {
		connLog.Debug().Err(err).Msg("failed to send handshake result")
		return false
	}
	return true
}
