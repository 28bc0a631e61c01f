package handlers

import (
	"context"

	"go.uber.org/zap"

	"consultorio-backend/application/commands"
	"consultorio-backend/application/session"
	"consultorio-backend/domain/core/aggregates"
)

// ToggleDarkModeHandler handles the ToggleDarkModeCommand. The preference is
// persisted locally with the snapshot but never pushed to the remote store.
type ToggleDarkModeHandler struct {
	snapshots *session.Store
	logger    *zap.Logger
}

// NewToggleDarkModeHandler creates a new handler instance
func NewToggleDarkModeHandler(snapshots *session.Store, logger *zap.Logger) *ToggleDarkModeHandler {
	return &ToggleDarkModeHandler{snapshots: snapshots, logger: logger}
}

// Handle flips the dark mode flag
func (h *ToggleDarkModeHandler) Handle(ctx context.Context, cmd commands.ToggleDarkModeCommand) (aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return h.snapshots.Current(), err
	}

	return h.snapshots.Update(ctx, func(s *aggregates.Snapshot) error {
		s.DarkMode = !s.DarkMode
		return nil
	})
}
