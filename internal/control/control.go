// Package control delivers service controls to a console-mode instance over
// a local unix socket, one JSON request and response per connection.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/turtacn/verboten/internal/lifecycle"
	"github.com/turtacn/verboten/pkg/logger"
)

const ioTimeout = 5 * time.Second

// Request asks the instance to handle one control.
type Request struct {
	Control string `json:"control"`
}

// Response carries the handler's answer.
type Response struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server accepts controls on a unix socket and hands them to a handler.
type Server struct {
	path    string
	handler lifecycle.ControlHandler
	log     logger.Logger
}

func NewServer(path string, handler lifecycle.ControlHandler, log logger.Logger) *Server {
	return &Server{path: path, handler: handler, log: log}
}

// Listen creates the socket, replacing a stale one left by a previous run.
func (s *Server) Listen() (net.Listener, error) {
	if _, err := os.Stat(s.path); err == nil {
		_ = os.Remove(s.path)
	}
	l, err := net.Listen("unix", s.path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(s.path, 0o700); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// Serve listens and answers requests until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	l, err := s.Listen()
	if err != nil {
		return err
	}
	defer os.Remove(s.path)

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	s.log.Info("Control socket listening", "socket", s.path)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	var (
		req  Request
		resp Response
	)
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.log.Warn("Control: bad request", "err", err)
		resp.Error = err.Error()
	} else if c, err := lifecycle.ParseControl(req.Control); err != nil {
		resp.Error = err.Error()
	} else {
		resp.Result = s.handler.HandleControl(c).String()
		s.log.Debug("Control: handled", "control", c.String(), "result", resp.Result)
	}

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.log.Warn("Control: unable to answer", "err", err)
	}
}

// Send delivers one control to the instance listening on path and returns
// the handler's answer.
func Send(path string, c lifecycle.Control, timeout time.Duration) (lifecycle.Ack, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if err := json.NewEncoder(conn).Encode(Request{Control: c.String()}); err != nil {
		return 0, err
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return 0, err
	}
	if resp.Error != "" {
		return 0, errors.New(resp.Error)
	}

	switch resp.Result {
	case lifecycle.AckAccepted.String():
		return lifecycle.AckAccepted, nil
	case lifecycle.AckNotImplemented.String():
		return lifecycle.AckNotImplemented, nil
	default:
		return 0, fmt.Errorf("unexpected control result %q", resp.Result)
	}
}

// Personal.AI order the ending
