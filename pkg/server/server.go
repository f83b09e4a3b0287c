// Copyright 2024 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/binkynet/FastPWM/pkg/service"
)

// Config for the HTTP & SSH server.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests (0 disables HTTP)
	HTTPPort int
	// Port to listen on for SSH requests (0 disables SSH)
	SSHPort int
	// Path of the SSH host key. Created if it does not exist.
	HostKeyPath string
}

// Server runs the HTTP server for the service.
type Server struct {
	Config
	log     zerolog.Logger
	ui      UI
	service service.Service
}

// UI creates a Bubble Tea model for an incoming ssh.Session.
type UI interface {
	Handler(s ssh.Session) (tea.Model, []tea.ProgramOption)
}

// New configures a new Server.
func New(cfg Config, log zerolog.Logger, ui UI, svc service.Service) (*Server, error) {
	if cfg.HostKeyPath == "" {
		cfg.HostKeyPath = ".ssh/id_ed25519"
	}
	return &Server{
		Config:  cfg,
		log:     log.With().Str("component", "server").Logger(),
		ui:      ui,
		service: svc,
	}, nil
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	log := s.log
	var httpSrv *http.Server
	var sshServer *ssh.Server

	if s.HTTPPort != 0 {
		// Prepare HTTP listener
		httpAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
		httpLis, err := net.Listen("tcp", httpAddr)
		if err != nil {
			return errors.Wrapf(err, "failed to listen on address %s", httpAddr)
		}

		// Prepare HTTP server
		httpSrv = &http.Server{
			Handler: s.newRouter(),
		}
		log.Debug().Str("address", httpAddr).Msg("Serving HTTP")
		go func() {
			if err := httpSrv.Serve(httpLis); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("failed to serve HTTP server")
			}
			log.Debug().Str("address", httpAddr).Msg("Done Serving HTTP")
		}()
	}

	if s.SSHPort != 0 && s.ui != nil {
		// Prepare SSH server
		sshAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.SSHPort))
		var err error
		sshServer, err = wish.NewServer(
			wish.WithAddress(sshAddr),
			// By default, an ED25519 key is created.
			wish.WithHostKeyPath(s.HostKeyPath),
			// The last item in the chain is the first to be called.
			wish.WithMiddleware(
				bubbletea.Middleware(s.ui.Handler),
				activeterm.Middleware(),
				logging.Middleware(),
			),
		)
		if err != nil {
			return errors.Wrap(err, "could not start SSH server")
		}
		log.Debug().Str("address", sshAddr).Msg("Serving SSH")
		go func() {
			if err := sshServer.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				log.Fatal().Err(err).Msg("failed to serve SSH server")
			}
			log.Debug().Str("address", sshAddr).Msg("Done Serving SSH")
		}()
	}

	// Wait until context closed
	<-ctx.Done()

	log.Info().Msg("Closing servers")
	if httpSrv != nil {
		httpSrv.Shutdown(context.Background())
	}
	if sshServer != nil {
		sshServer.Shutdown(context.Background())
	}
	return nil
}

// newRouter creates the HTTP routes.
func (s *Server) newRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/health", echo.WrapHandler(http.HandlerFunc(healthHandler)))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))

	v1 := e.Group("/api/v1")
	v1.GET("/status", s.handleGetStatus)
	v1.GET("/pins/:pin", s.handleGetPin)
	v1.PUT("/pins/:pin", s.handleSetPin)
	v1.POST("/pins/:pin/begin", s.handleBeginPin)
	return e
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "OK")
}
