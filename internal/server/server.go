// Package server wraps http.Server with TLS support and graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"payment-router/internal/common/logging"
)

type Server struct {
	srv     *http.Server
	tlsCert string
	tlsKey  string
}

func New(handler http.Handler, port, tlsCert, tlsKey string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		tlsCert: tlsCert,
		tlsKey:  tlsKey,
	}
}

// Start begins serving in a background goroutine. With both a certificate
// and a key configured the listener speaks TLS 1.2 or newer.
func (s *Server) Start() error {
	if s.tlsCert != "" && s.tlsKey != "" {
		s.srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		logging.Info("Starting HTTPS server", logging.String("addr", s.srv.Addr))
		go func() {
			if err := s.srv.ListenAndServeTLS(s.tlsCert, s.tlsKey); err != nil && err != http.ErrServerClosed {
				panic(err)
			}
		}()
		return nil
	}

	logging.Info("Starting HTTP server", logging.String("addr", s.srv.Addr))
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
