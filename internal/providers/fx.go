package providers

import (
	"github.com/assocdesk/memberportal/internal/providers/email"
	"github.com/assocdesk/memberportal/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
