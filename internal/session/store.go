package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound сессия отсутствует или истекла по TTL.
var ErrNotFound = errors.New("session not found or expired")

// Store интерфейс хранилища сессий.
//
// Истечение по TTL скользящее: сессия считается истёкшей, если с момента
// последнего обновления прошло больше TTL. Истёкшая запись ведёт себя как
// отсутствующая; фоновая уборка памяти выполняется через ClearExpired.
type Store interface {
	// CreateIfAbsent атомарно создаёт сессию, если записи с таким id ещё нет.
	// Если неистёкшая запись существует, возвращает её и created=false —
	// это делает старт сессии идемпотентным при повторах клиента.
	CreateIfAbsent(ctx context.Context, s Session) (Session, bool, error)

	// Get возвращает сессию; found=false если записи нет или она истекла.
	Get(ctx context.Context, id uuid.UUID) (Session, bool, error)

	// AppendTurn добавляет реплики и обновляет UpdatedAt.
	// Возвращает ErrNotFound для отсутствующей или истёкшей сессии.
	AppendTurn(ctx context.Context, id uuid.UUID, turns ...Turn) error

	// TruncateHistory оставляет только maxTurns самых свежих реплик,
	// отбрасывая старые и сохраняя порядок оставшихся.
	TruncateHistory(ctx context.Context, id uuid.UUID, maxTurns int) error

	// Release безусловно удаляет сессию. Идемпотентна.
	Release(ctx context.Context, id uuid.UUID) error

	// LockSession сериализует работу с одной сессией: вызывающий держит
	// блокировку на всё время обработки хода и освобождает её через release.
	// Блокировки разных сессий независимы.
	LockSession(id uuid.UUID) (release func())

	// ClearExpired удаляет истёкшие относительно now сессии.
	// Возвращает количество удалённых записей.
	ClearExpired(ctx context.Context, now time.Time) (int, error)
}
