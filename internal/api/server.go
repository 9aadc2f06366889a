// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the coaching-session HTTP API.
package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/academy/internal/control/middleware"
	"github.com/ManuGH/academy/internal/curriculum"
	"github.com/ManuGH/academy/internal/domain/session/manager"
	"github.com/ManuGH/academy/internal/health"
	"github.com/ManuGH/academy/internal/ratelimit"
)

// Config controls the HTTP surface.
type Config struct {
	Version   string
	TeamsPath string
	Stack     middleware.StackConfig

	// WriteLimit throttles mutating session routes per client when set.
	WriteLimit *ratelimit.Config
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Sessions *manager.Service
	Catalog  *curriculum.Holder
	Health   *health.Manager
}

// Server owns the router and its handler dependencies.
type Server struct {
	cfg          Config
	sessions     *manager.Service
	catalog      *curriculum.Holder
	health       *health.Manager
	writeLimiter *ratelimit.Limiter
	handler      http.Handler
}

// New wires the handlers and the middleware stack.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Sessions == nil {
		return nil, errors.New("api: session service is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("api: curriculum holder is required")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(cfg.Version)
	}

	s := &Server{
		cfg:      cfg,
		sessions: deps.Sessions,
		catalog:  deps.Catalog,
		health:   deps.Health,
	}
	if cfg.WriteLimit != nil {
		s.writeLimiter = ratelimit.New(*cfg.WriteLimit)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
