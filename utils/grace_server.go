package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = defaultReadTimeout
	defaultShutdownTimeout = 30 * time.Second
	gracefulEnvKey         = "IS_GRACEFUL"
	gracefulEnvValue       = gracefulEnvKey + "=1"
	gracefulListenerFD     = 3
)

// Server wraps http.Server with signal driven shutdown and SIGUSR2 hand-over.
type Server struct {
	*http.Server

	listener        net.Listener
	isGraceful      bool
	shutdownTimeout time.Duration
	signalChan      chan os.Signal
	shutdownChan    chan struct{}
	onShutdown      []func()
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		isGraceful:      os.Getenv(gracefulEnvKey) != "",
		shutdownTimeout: defaultShutdownTimeout,
		signalChan:      make(chan os.Signal, 1),
		shutdownChan:    make(chan struct{}),
	}
}

// OnShutdown registers fn to run after in-flight requests drained.
func (srv *Server) OnShutdown(fn func()) {
	srv.onShutdown = append(srv.onShutdown, fn)
}

// ListenAndServe starts serving on tcp and blocks until a shutdown signal is handled.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.getNetListener(addr)
	if err != nil {
		return err
	}
	srv.listener = ln
	go srv.handleSignals()
	Sugar.Infow("http server listening", "addr", ln.Addr().String(), "graceful", srv.isGraceful)
	err = srv.Server.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-srv.shutdownChan
	return nil
}

func (srv *Server) getNetListener(addr string) (net.Listener, error) {
	if srv.isGraceful {
		file := os.NewFile(gracefulListenerFD, "")
		ln, err := net.FileListener(file)
		if err != nil {
			return nil, fmt.Errorf("net.FileListener error: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen error: %w", err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)

	for sig := range srv.signalChan {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			Sugar.Infow("shutting down http server", "signal", sig.String())
			srv.shutdown()
			return
		case syscall.SIGUSR2:
			pid, err := srv.startNewProcess()
			if err != nil {
				Sugar.Errorw("start new process failed, continue serving", "error", err)
				continue
			}
			Sugar.Infow("new process started, closing old server", "pid", pid)
			srv.shutdown()
			return
		}
	}
}

func (srv *Server) shutdown() {
	signal.Stop(srv.signalChan)
	ctx, cancel := context.WithTimeout(context.Background(), srv.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorw("http server shutdown error", "error", err)
	} else {
		Sugar.Info("http server shutdown complete")
	}
	for _, fn := range srv.onShutdown {
		fn()
	}
	close(srv.shutdownChan)
}

// startNewProcess re-executes the binary handing over the listening socket as fd 3.
func (srv *Server) startNewProcess() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is not *net.TCPListener")
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("get listener file: %w", err)
	}
	defer file.Close()

	envs := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			envs = append(envs, e)
		}
	}
	envs = append(envs, gracefulEnvValue)

	attr := &syscall.ProcAttr{
		Env:   envs,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	}
	return syscall.ForkExec(os.Args[0], os.Args, attr)
}

// GraceServer serves handler on addr until SIGINT or SIGTERM, then drains
// in-flight requests and runs cleanup hooks in order.
func GraceServer(addr string, handler http.Handler, cleanup ...func()) error {
	srv := NewServer(addr, handler, defaultReadTimeout, defaultWriteTimeout)
	for _, fn := range cleanup {
		srv.OnShutdown(fn)
	}
	return srv.ListenAndServe()
}
