package search

import (
	"sync"
	"time"

	"listing-service/internal/core/domain"
)

// Store - последняя загруженная коллекция объявлений.
//
// Загрузки могут пересекаться. Каждая загрузка получает поколение через Begin
// и завершается либо Commit, либо Abort. Результат отбрасывается, если уже
// установлено более новое поколение. Если более новая загрузка еще идет,
// результат откладывается: он будет установлен, когда все более новые
// загрузки завершатся ошибкой. Так побеждает последняя начатая загрузка,
// но ее ошибка не стирает успешный ответ более ранней.
type Store struct {
	mu        sync.RWMutex
	listings  []domain.Listing
	byID      map[string]int
	loaded    bool
	loadedAt  time.Time
	started   uint64
	committed uint64
	inFlight  map[uint64]struct{}
	pending   *pendingLoad
}

type pendingLoad struct {
	gen      uint64
	listings []domain.Listing
}

func NewStore() *Store {
	return &Store{byID: make(map[string]int), inFlight: make(map[uint64]struct{})}
}

// Begin регистрирует новую загрузку и возвращает ее поколение
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	s.inFlight[s.started] = struct{}{}
	return s.started
}

// Commit устанавливает коллекцию поколения gen.
// false: результат устарел или отложен до завершения более новой загрузки.
func (s *Store) Commit(gen uint64, listings []domain.Listing) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, gen)
	if gen <= s.committed {
		return false
	}
	if s.newerInFlight(gen) {
		if s.pending == nil || s.pending.gen < gen {
			s.pending = &pendingLoad{gen: gen, listings: listings}
		}
		return false
	}
	s.install(gen, listings)
	return true
}

// Abort завершает неудачную загрузку. Если она была последней среди более
// новых, чем отложенный результат, отложенный результат устанавливается.
func (s *Store) Abort(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, gen)
	if s.pending != nil && !s.newerInFlight(s.pending.gen) {
		s.install(s.pending.gen, s.pending.listings)
	}
}

// Pending - отложенный успешный результат, которого еще нет в Snapshot
func (s *Store) Pending() ([]domain.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		return nil, false
	}
	return s.pending.listings, true
}

func (s *Store) newerInFlight(gen uint64) bool {
	for g := range s.inFlight {
		if g > gen {
			return true
		}
	}
	return false
}

// install вызывается под s.mu
func (s *Store) install(gen uint64, listings []domain.Listing) {
	byID := make(map[string]int, len(listings))
	for i, l := range listings {
		byID[l.ID] = i
	}
	s.listings = listings
	s.byID = byID
	s.loaded = true
	s.loadedAt = time.Now()
	s.committed = gen
	if s.pending != nil && s.pending.gen <= gen {
		s.pending = nil
	}
}

// Snapshot возвращает коллекцию и признак, что она хотя бы раз загружалась.
// Срез нельзя менять: он разделяется между читателями.
func (s *Store) Snapshot() ([]domain.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listings, s.loaded
}

func (s *Store) Get(id string) (domain.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.Listing{}, false
	}
	return s.listings[i], true
}

func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
