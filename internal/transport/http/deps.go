package http

import (
	"log/slog"

	"github.com/hrm-gateway/internal/application/directory"
	"github.com/hrm-gateway/internal/application/feed"
	jwtinfra "github.com/hrm-gateway/internal/infrastructure/jwt"
)

// Deps holds the wired services the router needs.
type Deps struct {
	Feed        *feed.Service
	Directory   *directory.Service
	JWTProvider *jwtinfra.Provider
	Logger      *slog.Logger
}
