package usecases_port

import "context"

type RefreshListingsUseCase interface {
	// Execute возвращает число объявлений в новом снимке
	Execute(ctx context.Context, force bool) (int, error)
}
