package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const shardCount = 32

// MemoryStore потокобезопасное in-memory хранилище сессий со скользящим TTL.
// Данные и блокировки шардированы по id, чтобы разговоры разных будок не
// сериализовали друг друга.
type MemoryStore struct {
	shards [shardCount]shard
	locks  [shardCount]sync.Mutex
	ttl    time.Duration
	now    func() time.Time
}

type shard struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]Session
}

// NewMemoryStore создаёт хранилище. ttl определяет, как долго сессия живёт
// без активности; ttl == 0 означает, что сессии не истекают.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl: ttl,
		now: time.Now,
	}
	for i := range s.shards {
		s.shards[i].sessions = make(map[uuid.UUID]Session)
	}
	return s
}

func shardIndex(id uuid.UUID) int {
	h := fnv.New32a()
	h.Write(id[:])
	return int(h.Sum32() % shardCount)
}

func (s *MemoryStore) shard(id uuid.UUID) *shard {
	return &s.shards[shardIndex(id)]
}

func (s *MemoryStore) expired(sess Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.UpdatedAt) > s.ttl
}

// CreateIfAbsent атомарно создаёт сессию. Истёкшая запись с тем же id
// перезаписывается как новая.
func (s *MemoryStore) CreateIfAbsent(ctx context.Context, sess Session) (Session, bool, error) {
	sh := s.shard(sess.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	if existing, ok := sh.sessions[sess.ID]; ok && !s.expired(existing, now) {
		return copySession(existing), false, nil
	}

	sess.TTL = s.ttl
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	sess.Turns = append([]Turn(nil), sess.Turns...)
	sh.sessions[sess.ID] = sess
	return copySession(sess), true, nil
}

// Get возвращает копию сессии. Ленивая очистка: истёкшая запись удаляется.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Session, bool, error) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return Session{}, false, nil
	}
	if s.expired(sess, s.now()) {
		delete(sh.sessions, id)
		return Session{}, false, nil
	}
	return copySession(sess), true, nil
}

// AppendTurn добавляет реплики и продлевает жизнь сессии (UpdatedAt).
func (s *MemoryStore) AppendTurn(ctx context.Context, id uuid.UUID, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	sess, ok := sh.sessions[id]
	if !ok || s.expired(sess, now) {
		delete(sh.sessions, id)
		return ErrNotFound
	}

	sess.Turns = append(sess.Turns, turns...)
	sess.UpdatedAt = now
	sh.sessions[id] = sess
	return nil
}

// TruncateHistory оставляет maxTurns самых свежих реплик.
func (s *MemoryStore) TruncateHistory(ctx context.Context, id uuid.UUID, maxTurns int) error {
	if maxTurns < 0 {
		maxTurns = 0
	}

	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[id]
	if !ok || s.expired(sess, s.now()) {
		delete(sh.sessions, id)
		return ErrNotFound
	}
	if len(sess.Turns) <= maxTurns {
		return nil
	}

	kept := make([]Turn, maxTurns)
	copy(kept, sess.Turns[len(sess.Turns)-maxTurns:])
	sess.Turns = kept
	sh.sessions[id] = sess
	return nil
}

// Release удаляет сессию. Отсутствие записи не является ошибкой.
func (s *MemoryStore) Release(ctx context.Context, id uuid.UUID) error {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.sessions, id)
	return nil
}

// LockSession берёт блокировку из шардированной таблицы по id сессии.
// Одинаковые id всегда попадают в одну и ту же блокировку, поэтому
// конкурентные ходы одной сессии выполняются по одному.
func (s *MemoryStore) LockSession(id uuid.UUID) (release func()) {
	mu := &s.locks[shardIndex(id)]
	mu.Lock()
	return mu.Unlock
}

// ClearExpired удаляет все истёкшие относительно now сессии.
func (s *MemoryStore) ClearExpired(ctx context.Context, now time.Time) (int, error) {
	if s.ttl == 0 {
		return 0, nil
	}

	var deleted int
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if s.expired(sess, now) {
				delete(sh.sessions, id)
				deleted++
			}
		}
		sh.mu.Unlock()
	}
	return deleted, nil
}

// copySession возвращает копию с отдельным срезом реплик,
// чтобы избежать изменений снаружи.
func copySession(sess Session) Session {
	turns := make([]Turn, len(sess.Turns))
	copy(turns, sess.Turns)
	sess.Turns = turns
	return sess
}
