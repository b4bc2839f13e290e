package conversation

import (
	"github.com/assocdesk/memberportal/internal/conversation/repository"
	"github.com/assocdesk/memberportal/internal/conversation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("conversation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
