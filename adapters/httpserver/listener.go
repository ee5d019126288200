package httpserver

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Listener is a running HTTP server bound to an address.
type Listener struct {
	srv  *http.Server
	ln   net.Listener
	log  *logrus.Logger
	done chan error
}

// Start binds addr and serves handler in the background. Use ":0" to pick a free port.
func Start(addr string, handler http.Handler, log *logrus.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	l := &Listener{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          stdlog.New(log.WriterLevel(logrus.ErrorLevel), "", 0),
		},
		ln:   ln,
		log:  log,
		done: make(chan error, 1),
	}

	go func() {
		err := l.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		l.done <- err
		close(l.done)
	}()

	log.WithField("addr", l.Addr()).Info("Starting server")
	return l, nil
}

func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Done yields the serve error, nil after a clean Stop, then closes.
func (l *Listener) Done() <-chan error {
	return l.done
}

// Stop drains in-flight requests until ctx expires.
func (l *Listener) Stop(ctx context.Context) error {
	l.log.WithField("addr", l.Addr()).Info("Shutting down server")

	if err := l.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-l.done
}
