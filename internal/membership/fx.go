package membership

import (
	"github.com/assocdesk/memberportal/internal/membership/repository"
	"github.com/assocdesk/memberportal/internal/membership/service"
	"go.uber.org/fx"
)

var Module = fx.Module("membership.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
