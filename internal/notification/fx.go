package notification

import (
	"github.com/assocdesk/memberportal/internal/notification/repository"
	"github.com/assocdesk/memberportal/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
