// Package memory keeps every table in process memory. It backs the service
// tests and `serve --store=memory`.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
)

type state struct {
	parts       map[int]models.Part
	barcodes    map[string]int
	issuances   map[int]models.Issuance
	deliveries  map[int]models.Delivery
	tools       map[int]models.Tool
	signouts    map[int]models.ToolSignout
	locations   map[int]models.StorageLocation
	shelves     map[int]models.Shelf
	staff       map[int]models.StaffMember
	buildings   map[int]models.Building
	costCenters map[int]models.CostCenter
	users       map[int]models.User
	auditLogs   []models.AuditLog
	sequences   map[string]int
}

func newState() *state {
	return &state{
		parts:       map[int]models.Part{},
		barcodes:    map[string]int{},
		issuances:   map[int]models.Issuance{},
		deliveries:  map[int]models.Delivery{},
		tools:       map[int]models.Tool{},
		signouts:    map[int]models.ToolSignout{},
		locations:   map[int]models.StorageLocation{},
		shelves:     map[int]models.Shelf{},
		staff:       map[int]models.StaffMember{},
		buildings:   map[int]models.Building{},
		costCenters: map[int]models.CostCenter{},
		users:       map[int]models.User{},
		sequences:   map[string]int{},
	}
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (st *state) clone() *state {
	return &state{
		parts:       cloneMap(st.parts),
		barcodes:    cloneMap(st.barcodes),
		issuances:   cloneMap(st.issuances),
		deliveries:  cloneMap(st.deliveries),
		tools:       cloneMap(st.tools),
		signouts:    cloneMap(st.signouts),
		locations:   cloneMap(st.locations),
		shelves:     cloneMap(st.shelves),
		staff:       cloneMap(st.staff),
		buildings:   cloneMap(st.buildings),
		costCenters: cloneMap(st.costCenters),
		users:       cloneMap(st.users),
		auditLogs:   append([]models.AuditLog(nil), st.auditLogs...),
		sequences:   cloneMap(st.sequences),
	}
}

func (st *state) nextID(table string) int {
	st.sequences[table]++
	return st.sequences[table]
}

// Store serialises transactions with one mutex. A transaction works on the
// live state and a snapshot taken at its start is restored on failure.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		} else if err != nil {
			s.st = snapshot
		}
	}()

	err = fn(repository.ContextWithTx(ctx, s))
	return
}

func (s *Store) inTx(ctx context.Context) bool {
	marker, ok := repository.TxFrom(ctx).(*Store)
	return ok && marker == s
}

// lock takes the store mutex unless ctx already runs inside one of this
// store's transactions.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) requireTx(ctx context.Context) error {
	if !s.inTx(ctx) {
		return repository.ErrNoTransaction
	}
	return nil
}

func uniqueViolation(format string, args ...interface{}) error {
	return custom_error.WrapDBError(fmt.Sprintf(format, args...), "23505")
}

func foreignKeyViolation(format string, args ...interface{}) error {
	return custom_error.WrapDBError(fmt.Sprintf(format, args...), "23503")
}

func checkViolation(format string, args ...interface{}) error {
	return custom_error.WrapDBError(fmt.Sprintf(format, args...), "23514")
}

func idSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
