package port

import "github.com/google/uuid"

// NotifierPort доставляет событие подключенным клиентам пользователя
type NotifierPort interface {
	Notify(userID uuid.UUID, event string, payload interface{})
}
