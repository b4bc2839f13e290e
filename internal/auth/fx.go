package auth

import (
	"github.com/assocdesk/memberportal/internal/auth/repository"
	"github.com/assocdesk/memberportal/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
