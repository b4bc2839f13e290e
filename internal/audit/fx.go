package audit

import (
	"github.com/assocdesk/memberportal/internal/audit/repository"
	"github.com/assocdesk/memberportal/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
