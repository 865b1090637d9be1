package handlers

import (
	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/domain/prompt"
	"prompthub/services/library-api/internal/domain/session"
)

// Provider wires HTTP handlers.
type Provider struct {
	Prompt    *PromptHandler
	Session   *SessionHandler
	Assistant *AssistantHandler
}

func NewProvider(promptService *prompt.Service, sessionManager *session.Manager, log zerolog.Logger) *Provider {
	return &Provider{
		Prompt:    NewPromptHandler(promptService, log),
		Session:   NewSessionHandler(sessionManager, log),
		Assistant: NewAssistantHandler(promptService, log),
	}
}
