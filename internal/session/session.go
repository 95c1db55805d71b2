package session

import (
	"time"

	"github.com/google/uuid"
)

// Роли реплик в диалоге.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn одна реплика диалога. После добавления в сессию не изменяется.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session серверная запись одного разговора посетителя с будкой.
// ID задаётся клиентом (UUIDv4) и уникален в пределах хранилища.
type Session struct {
	ID          uuid.UUID     `json:"session_id"`
	BoothID     string        `json:"booth_id"`
	Personality string        `json:"personality"`
	Mode        string        `json:"mode"`
	Turns       []Turn        `json:"turns"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	TTL         time.Duration `json:"ttl"`
}
