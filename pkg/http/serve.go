package xhttp

import (
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	defaultReadBufferSize  = 1024 * 4
	defaultWriteBufferSize = 1024 * 4
	defaultReadTimeout     = time.Millisecond * 2500
	defaultWriteTimeout    = time.Millisecond * 2500
	defaultRequestTimeout  = time.Millisecond * 5000
)

type Server = fasthttp.Server

type ServerOption struct {
	// idle keep-alive connections are closed after this, otherwise a busy
	// box runs into "too many open files"
	IdleTimeout time.Duration

	MaxIdleWorkerDuration time.Duration
	TCPKeepalivePeriod    time.Duration

	// default is 4MB
	MaxRequestBodySize int

	// RequestTimeout bounds handler execution, enforced by TimeoutMiddleware.
	RequestTimeout time.Duration

	// also caps the max header size
	ReadBufferSize  int
	WriteBufferSize int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Concurrency   int
	MaxConnsPerIP int

	Name string
}

// DefaultServerOption returns the baseline server tuning.
func DefaultServerOption() ServerOption {
	return ServerOption{
		IdleTimeout:           time.Second * 10,
		MaxIdleWorkerDuration: time.Minute * 1,
		TCPKeepalivePeriod:    time.Minute * 120, // linux default
		MaxRequestBodySize:    4 * 1024 * 1024,
		RequestTimeout:        defaultRequestTimeout,
		ReadBufferSize:        defaultReadBufferSize,
		WriteBufferSize:       defaultWriteBufferSize,
		ReadTimeout:           defaultReadTimeout,
		WriteTimeout:          defaultWriteTimeout,
		Concurrency:           30_000,
		MaxConnsPerIP:         10_000,
	}
}

// WithTimeouts overrides the timeouts given in milliseconds; zero keeps the default.
func (o ServerOption) WithTimeouts(readMs, writeMs, requestMs int) ServerOption {
	if readMs > 0 {
		o.ReadTimeout = time.Duration(readMs) * time.Millisecond
	}
	if writeMs > 0 {
		o.WriteTimeout = time.Duration(writeMs) * time.Millisecond
	}
	if requestMs > 0 {
		o.RequestTimeout = time.Duration(requestMs) * time.Millisecond
	}
	return o
}

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler: NotFoundHandler,
		ErrorHandler: func(ctx *RequestCtx, err error) {
			logger.Error("[xhttp] connection error", "error", err)
		},
		Name:                          options.Name,
		Concurrency:                   options.Concurrency,
		ReadBufferSize:                options.ReadBufferSize,
		WriteBufferSize:               options.WriteBufferSize,
		ReadTimeout:                   options.ReadTimeout,
		WriteTimeout:                  options.WriteTimeout,
		IdleTimeout:                   options.IdleTimeout,
		MaxConnsPerIP:                 options.MaxConnsPerIP,
		MaxIdleWorkerDuration:         options.MaxIdleWorkerDuration,
		TCPKeepalivePeriod:            options.TCPKeepalivePeriod,
		MaxRequestBodySize:            options.MaxRequestBodySize,
		TCPKeepalive:                  true,
		DisablePreParseMultipartForm:  true,
		LogAllErrors:                  true,
		NoDefaultServerHeader:         true,
		NoDefaultDate:                 true,
		NoDefaultContentType:          true,
		CloseOnShutdown:               true,
		DisableHeaderNamesNormalizing: false,
		Logger:                        logger.GetLogger(),
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: CreateDefaultRouter(),
		option: options,
	}
}

// CreateServer builds an engine with the default router and the standard
// recover, request id, logging and timeout middleware chain.
func CreateServer(options ServerOption) *Engine {
	s := NewServer(options)
	s.Use(RecoverMiddleware)
	s.Use(RequestIDMiddleware)
	s.Use(RequestLoggerMiddleware)
	if options.RequestTimeout > 0 {
		s.Use(TimeoutMiddleware(options.RequestTimeout))
	}
	return s
}

// Option returns the options the engine was built with.
func (e *Engine) Option() ServerOption {
	return e.option
}

func (e *Engine) ListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	logger.Info("[xhttp] server is listening", "addr", addr)
	return e.Server.ListenAndServe(addr)
}

// BuildHandler returns the fully wrapped request handler, routing included.
func (e *Engine) BuildHandler() RequestHandler {
	if err := e.DoRouting(); err != nil {
		logger.Error("[xhttp] routing failed", "error", err)
	}
	return e.Server.Handler
}

func (e *Engine) DoRouting() error {
	for method, route := range e.Router.List() {
		for _, r := range route {
			logger.Debug("[xhttp] route registered", "method", method, "path", r)
		}
	}
	e.Server.Handler = e.Router.Handler
	// first registered middleware is the outermost
	chain := slices.Clone(e.middle)
	slices.Reverse(chain)
	for i, m := range chain {
		e.Server.Handler = m(e.Server.Handler)
		logger.Debug("[xhttp] middleware registered", "order", len(chain)-i, "name", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	return nil
}

func (e *Engine) CloseOnSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig
		e.Shutdown()
	}()
}

// Use adds middleware to the end of the chain which is run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down", "pid", os.Getpid())
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
