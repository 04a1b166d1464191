// Package server exposes the account service over HTTP.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-account-service/accounts"
	"github.com/jrsteele09/go-account-service/internal/config"
	"github.com/jrsteele09/go-account-service/sessions"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	// maxJSONBodyBytes caps every JSON request body
	maxJSONBodyBytes = 1 << 20
	// multipartOverhead is the allowance for multipart boundaries and headers
	// on top of the avatar size limit
	multipartOverhead = 64 << 10
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   *config.Config
	accounts *accounts.Service
	sessions *sessions.Manager
}

func New(cfg *config.Config, accountService *accounts.Service, sessionManager *sessions.Manager) *Server {
	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		accounts: accountService,
		sessions: sessionManager,
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logRequest(method, path string, status int, elapsed time.Duration) {
	log.Info().Msgf("[%-19s] %s %s %s", colourMethod(method), path, colourStatus(status), elapsed.Round(time.Microsecond))
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if colour, ok := methodColors[method]; ok {
		return colour + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func colourStatus(status int) string {
	return statusColor(status) + fmt.Sprint(status) + ResetColor
}
