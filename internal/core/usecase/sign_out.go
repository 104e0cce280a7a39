package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/feed"
	"listing-service/internal/core/port"
	"listing-service/internal/core/session"

	"github.com/google/uuid"
)

type SignOutUseCase struct {
	tracker *session.Tracker
	reducer *feed.Reducer
}

func NewSignOutUseCase(tracker *session.Tracker, reducer *feed.Reducer) *SignOutUseCase {
	return &SignOutUseCase{tracker: tracker, reducer: reducer}
}

// Execute переводит состояние пользователя в "вышел".
// Подписчики (SSE-потоки, опрос) реагируют на смену значения сами.
func (uc *SignOutUseCase) Execute(ctx context.Context, userID uuid.UUID) error {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SignOut",
		"user_id":  userID.String(),
	})
	ucLogger.Info("Use case started", nil)

	state := uc.tracker.SignOut(userID)
	uc.reducer.Forget(userID)

	ucLogger.Info("Use case finished successfully", port.Fields{"version": state.Version})
	return nil
}
