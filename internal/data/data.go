package data

import (
	"github.com/rs/zerolog"

	"github.com/procampo/whatsapp-bridge/internal/biz/repo"
	"github.com/procampo/whatsapp-bridge/internal/conf"
)

// Repositories contains all repositories
type Repositories struct {
	Messenger repo.MessengerRepo
	Audit     repo.AuditRepo
	Intent    repo.IntentRepo // nil when no classifier is configured
}

// NewRepositories creates all repositories
func NewRepositories(cfg *conf.Config, log zerolog.Logger) (*Repositories, error) {
	audit := NewNoopAuditRepo()
	if cfg.AuditEnabled() {
		auditRepo, err := NewAuditRepo(cfg.Audit.DBPath)
		if err != nil {
			return nil, err
		}
		audit = auditRepo
	}

	var intent repo.IntentRepo
	if cfg.ClassifierEnabled() {
		intent = NewClassifierRepo(ClassifierOptions{
			APIKey:  cfg.Classifier.APIKey,
			BaseURL: cfg.Classifier.BaseURL,
			Model:   cfg.Classifier.Model,
		})
	}

	return &Repositories{
		Messenger: NewWhatsAppRepo(WhatsAppOptions{
			Token:         cfg.WhatsApp.Token,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			APIVersion:    cfg.WhatsApp.APIVersion,
			BaseURL:       cfg.WhatsApp.BaseURL,
			SendRPS:       cfg.WhatsApp.SendRPS,
		}, log),
		Audit:  audit,
		Intent: intent,
	}, nil
}

// Close releases repository resources
func (r *Repositories) Close() error {
	return r.Audit.Close()
}
