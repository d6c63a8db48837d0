package biz

import (
	"time"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/repo"
	"github.com/procampo/whatsapp-bridge/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Handoff   *usecase.HandoffUsecase
	Intent    *usecase.IntentUsecase
	Formatter *usecase.Formatter
}

// NewUsecases creates all usecases. intentRepo may be nil.
func NewUsecases(handoffCfg domain.HandoffConfig, intentRepo repo.IntentRepo, catalog usecase.Catalog, loc *time.Location) *Usecases {
	return &Usecases{
		Handoff:   usecase.NewHandoffUsecase(handoffCfg),
		Intent:    usecase.NewIntentUsecase(intentRepo),
		Formatter: usecase.NewFormatter(catalog, loc, handoffCfg.MaxPending),
	}
}
