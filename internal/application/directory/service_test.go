package directory

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrm-gateway/internal/domain"
	"github.com/hrm-gateway/internal/querycache"
)

type mockEmployees struct {
	mock.Mock
}

func (m *mockEmployees) List(ctx context.Context, skip, limit int) ([]domain.Employee, error) {
	args := m.Called(ctx, skip, limit)
	list, _ := args.Get(0).([]domain.Employee)
	return list, args.Error(1)
}

func (m *mockEmployees) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*domain.Employee)
	return e, args.Error(1)
}

func (m *mockEmployees) Create(ctx context.Context, req domain.CreateEmployeeRequest) (*domain.Employee, error) {
	args := m.Called(ctx, req)
	e, _ := args.Get(0).(*domain.Employee)
	return e, args.Error(1)
}

func (m *mockEmployees) Update(ctx context.Context, id int64, req domain.UpdateEmployeeRequest) (*domain.Employee, error) {
	args := m.Called(ctx, id, req)
	e, _ := args.Get(0).(*domain.Employee)
	return e, args.Error(1)
}

func (m *mockEmployees) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockHolidays struct {
	mock.Mock
}

func (m *mockHolidays) List(ctx context.Context) ([]domain.Holiday, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]domain.Holiday)
	return list, args.Error(1)
}

func newTestService() (*Service, *mockEmployees, *mockHolidays) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := querycache.NewService(querycache.ServiceOptions{Logger: logger})
	employees := &mockEmployees{}
	holidays := &mockHolidays{}
	svc := NewService(ServiceDeps{
		Cache:     cache,
		Mutator:   querycache.NewMutator(cache, logger),
		Employees: employees,
		Holidays:  holidays,
		Logger:    logger,
	})
	return svc, employees, holidays
}

func TestListEmployeesCachesPerPage(t *testing.T) {
	svc, employees, _ := newTestService()
	employees.On("List", mock.Anything, 0, 10).Return([]domain.Employee{{ID: 1}}, nil)
	employees.On("List", mock.Anything, 10, 10).Return([]domain.Employee{{ID: 2}}, nil)

	page1, err := svc.ListEmployees(context.Background(), "tok", 0, 10)
	require.NoError(t, err)
	_, err = svc.ListEmployees(context.Background(), "tok", 0, 10)
	require.NoError(t, err)
	page2, err := svc.ListEmployees(context.Background(), "tok", 10, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), page1[0].ID)
	assert.Equal(t, int64(2), page2[0].ID)
	employees.AssertNumberOfCalls(t, "List", 2)
}

func TestListEmployeesNormalisesPagination(t *testing.T) {
	svc, employees, _ := newTestService()
	employees.On("List", mock.Anything, 0, DefaultPageSize).Return([]domain.Employee{{ID: 1}}, nil)

	_, err := svc.ListEmployees(context.Background(), "tok", -5, 0)
	require.NoError(t, err)
	employees.AssertCalled(t, "List", mock.Anything, 0, DefaultPageSize)
}

func TestListEmployeesSurfacesFirstFetchError(t *testing.T) {
	svc, employees, _ := newTestService()
	employees.On("List", mock.Anything, 0, 10).Return(nil, assert.AnError)

	_, err := svc.ListEmployees(context.Background(), "tok", 0, 10)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGetEmployeeCachedAndInvalidatedByUpdate(t *testing.T) {
	svc, employees, _ := newTestService()
	employees.On("Get", mock.Anything, int64(7)).Return(&domain.Employee{ID: 7, FirstName: "Ana"}, nil)
	newName := "Anabel"
	req := domain.UpdateEmployeeRequest{FirstName: &newName}
	employees.On("Update", mock.Anything, int64(7), req).Return(&domain.Employee{ID: 7, FirstName: newName}, nil)

	first, err := svc.GetEmployee(context.Background(), "tok", 7)
	require.NoError(t, err)
	_, err = svc.GetEmployee(context.Background(), "tok", 7)
	require.NoError(t, err)
	assert.Equal(t, "Ana", first.FirstName)
	employees.AssertNumberOfCalls(t, "Get", 1)

	_, err = svc.UpdateEmployee(context.Background(), "tok", 7, req)
	require.NoError(t, err)

	_, err = svc.GetEmployee(context.Background(), "tok", 7)
	require.NoError(t, err)
	employees.AssertNumberOfCalls(t, "Get", 2)
}

func TestCreateEmployeeInvalidatesCachedPages(t *testing.T) {
	svc, employees, _ := newTestService()
	employees.On("List", mock.Anything, 0, 10).Return([]domain.Employee{{ID: 1}}, nil)
	req := domain.CreateEmployeeRequest{
		FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", Department: "Engineering",
	}
	employees.On("Create", mock.Anything, req).Return(&domain.Employee{ID: 9}, nil)

	_, err := svc.ListEmployees(context.Background(), "tok", 0, 10)
	require.NoError(t, err)
	employees.AssertNumberOfCalls(t, "List", 1)

	created, err := svc.CreateEmployee(context.Background(), "tok", req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)

	_, err = svc.ListEmployees(context.Background(), "tok", 0, 10)
	require.NoError(t, err)
	employees.AssertNumberOfCalls(t, "List", 2)
}

func TestCreateEmployeeValidates(t *testing.T) {
	svc, employees, _ := newTestService()

	_, err := svc.CreateEmployee(context.Background(), "tok", domain.CreateEmployeeRequest{
		FirstName: "Ana", Email: "not-an-email",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	employees.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeleteEmployeeFailureKeepsCache(t *testing.T) {
	svc, employees, _ := newTestService()
	employees.On("List", mock.Anything, 0, 10).Return([]domain.Employee{{ID: 1}}, nil)
	employees.On("Delete", mock.Anything, int64(1)).Return(assert.AnError)

	_, err := svc.ListEmployees(context.Background(), "tok", 0, 10)
	require.NoError(t, err)

	err = svc.DeleteEmployee(context.Background(), "tok", 1)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = svc.ListEmployees(context.Background(), "tok", 0, 10)
	require.NoError(t, err)
	employees.AssertNumberOfCalls(t, "List", 1)
}

func TestHolidaysRecoverAfterTransientFailure(t *testing.T) {
	svc, _, holidays := newTestService()
	holidays.On("List", mock.Anything).Return(nil, assert.AnError).Once()
	holidays.On("List", mock.Anything).Return([]domain.Holiday{{ID: 1, Name: "New Year"}}, nil)

	_, err := svc.Holidays(context.Background(), "tok")
	require.ErrorIs(t, err, assert.AnError)

	list, err := svc.Holidays(context.Background(), "tok")
	require.NoError(t, err, "one upstream blip must not brick the calendar")
	require.Len(t, list, 1)
	holidays.AssertNumberOfCalls(t, "List", 2)
}

func TestHolidaysCached(t *testing.T) {
	svc, _, holidays := newTestService()
	holidays.On("List", mock.Anything).Return([]domain.Holiday{{ID: 1, Name: "New Year"}}, nil)

	first, err := svc.Holidays(context.Background(), "tok")
	require.NoError(t, err)
	second, err := svc.Holidays(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	holidays.AssertNumberOfCalls(t, "List", 1)
}
