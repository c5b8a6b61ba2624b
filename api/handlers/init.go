package handlers

import (
	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/services"
)

type APIHandlers struct {
	Inbound  *InboundHandler
	Messages *MessagesHandler
}

func InitHandlers(cfg *config.IngestConfig, log logger.Logger, s *services.Services) *APIHandlers {
	return &APIHandlers{
		Inbound:  NewInboundHandler(cfg, log, s.IngestionService),
		Messages: NewMessagesHandler(log, s.MessageService),
	}
}
