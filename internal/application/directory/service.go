// Package directory serves employee and holiday reads through the query
// cache and routes employee writes through the mutation-invalidation
// contract, the same way the notification feed does.
package directory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hrm-gateway/internal/domain"
	"github.com/hrm-gateway/internal/infrastructure/hrapi"
	"github.com/hrm-gateway/internal/pkg/validate"
	"github.com/hrm-gateway/internal/querycache"
)

// EmployeeClient is the slice of the upstream client the directory needs.
type EmployeeClient interface {
	List(ctx context.Context, skip, limit int) ([]domain.Employee, error)
	Get(ctx context.Context, id int64) (*domain.Employee, error)
	Create(ctx context.Context, req domain.CreateEmployeeRequest) (*domain.Employee, error)
	Update(ctx context.Context, id int64, req domain.UpdateEmployeeRequest) (*domain.Employee, error)
	Delete(ctx context.Context, id int64) error
}

// HolidayClient reads the holiday calendar.
type HolidayClient interface {
	List(ctx context.Context) ([]domain.Holiday, error)
}

const (
	// EmployeePrefix groups the per-page employee cache keys so a single
	// write can invalidate every cached page.
	EmployeePrefix = "employees:"
	holidayKey     = "holidays"
)

// DefaultPageSize matches the upstream skip/limit default.
const DefaultPageSize = 10

type ServiceDeps struct {
	Cache     *querycache.Service
	Mutator   *querycache.Mutator
	Employees EmployeeClient
	Holidays  HolidayClient
	Logger    *slog.Logger
}

type Service struct {
	cache     *querycache.Service
	mutator   *querycache.Mutator
	employees EmployeeClient
	holidays  HolidayClient
	logger    *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:     deps.Cache,
		mutator:   deps.Mutator,
		employees: deps.Employees,
		holidays:  deps.Holidays,
		logger:    logger,
	}
}

func employeePageKey(skip, limit int) string {
	return fmt.Sprintf("%s%d:%d", EmployeePrefix, skip, limit)
}

// ListEmployees reads one page through the cache. Stale data from before
// a failed refetch is still served; a page that never loaded returns the
// fetch error.
func (s *Service) ListEmployees(ctx context.Context, token string, skip, limit int) ([]domain.Employee, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	key := employeePageKey(skip, limit)
	entry, err := s.readThrough(ctx, key, func(ctx context.Context) (any, error) {
		return s.employees.List(hrapi.WithToken(ctx, token), skip, limit)
	})
	if err != nil {
		return nil, err
	}
	employees, ok := querycache.Data[[]domain.Employee](entry)
	if !ok {
		return nil, entry.Err
	}
	return employees, nil
}

// GetEmployee reads a single employee through the cache. The key shares
// the employee prefix so writes invalidate it along with the pages.
func (s *Service) GetEmployee(ctx context.Context, token string, id int64) (*domain.Employee, error) {
	key := fmt.Sprintf("%sid:%d", EmployeePrefix, id)
	entry, err := s.readThrough(ctx, key, func(ctx context.Context) (any, error) {
		e, err := s.employees.Get(hrapi.WithToken(ctx, token), id)
		if err != nil {
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	employee, ok := querycache.Data[*domain.Employee](entry)
	if !ok {
		return nil, entry.Err
	}
	return employee, nil
}

// Holidays reads the calendar through the cache under one shared key.
func (s *Service) Holidays(ctx context.Context, token string) ([]domain.Holiday, error) {
	entry, err := s.readThrough(ctx, holidayKey, func(ctx context.Context) (any, error) {
		return s.holidays.List(hrapi.WithToken(ctx, token))
	})
	if err != nil {
		return nil, err
	}
	holidays, ok := querycache.Data[[]domain.Holiday](entry)
	if !ok {
		return nil, entry.Err
	}
	return holidays, nil
}

// readThrough performs one subscribe-wait-unsubscribe cycle: repeated
// reads of a fresh key are served from the cache without touching the
// network, invalidated keys refetch once, concurrent readers share a
// single fetch.
func (s *Service) readThrough(ctx context.Context, key string, fetcher querycache.Fetcher) (querycache.Entry, error) {
	s.cache.Subscribe(key, fetcher, querycache.Options{Enabled: true})
	defer s.cache.Unsubscribe(key)
	return s.cache.Wait(ctx, key)
}

// CreateEmployee validates, writes upstream and invalidates every cached
// employee page on success.
func (s *Service) CreateEmployee(ctx context.Context, token string, req domain.CreateEmployeeRequest) (*domain.Employee, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ValidationError{Detail: err.Error()}
	}
	var created *domain.Employee
	err := s.mutator.Do(ctx, func(ctx context.Context) error {
		e, err := s.employees.Create(hrapi.WithToken(ctx, token), req)
		if err != nil {
			return err
		}
		created = e
		return nil
	}, EmployeePrefix+"*")
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, token string, id int64, req domain.UpdateEmployeeRequest) (*domain.Employee, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ValidationError{Detail: err.Error()}
	}
	var updated *domain.Employee
	err := s.mutator.Do(ctx, func(ctx context.Context) error {
		e, err := s.employees.Update(hrapi.WithToken(ctx, token), id, req)
		if err != nil {
			return err
		}
		updated = e
		return nil
	}, EmployeePrefix+"*")
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, token string, id int64) error {
	return s.mutator.Do(ctx, func(ctx context.Context) error {
		return s.employees.Delete(hrapi.WithToken(ctx, token), id)
	}, EmployeePrefix+"*")
}
