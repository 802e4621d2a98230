package service

import (
	"encoding/json"

	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/rs/zerolog/log"
)

// AuditLogService records who did what to which entity. Recording is
// best-effort: failures are logged and never propagated to the caller.
type AuditLogService interface {
	Record(actor *model.User, action, entityType string, entityID uint, details map[string]interface{})
}

type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{auditRepo: auditRepo}
}

func (s *auditLogService) Record(actor *model.User, action, entityType string, entityID uint, details map[string]interface{}) {
	entry := model.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if actor != nil {
		entry.ActorID = &actor.ID
	}
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("Failed to serialize audit details")
		} else {
			entry.Details = data
		}
	}

	if err := s.auditRepo.Create(&entry); err != nil {
		log.Error().Err(err).Str("action", action).Str("entityType", entityType).
			Uint("entityID", entityID).Msg("Failed to write audit log entry")
	}
}
