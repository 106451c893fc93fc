package hrapi

import (
	"context"
	"fmt"

	"github.com/hrm-gateway/internal/domain"
)

// EmployeeAPI provides typed operations for the employee resource.
type EmployeeAPI struct {
	client *Client
}

func NewEmployeeAPI(client *Client) *EmployeeAPI {
	return &EmployeeAPI{client: client}
}

// List fetches a page of employees using the upstream skip/limit contract.
func (a *EmployeeAPI) List(ctx context.Context, skip, limit int) ([]domain.Employee, error) {
	var out []domain.Employee
	path := fmt.Sprintf("/employees?skip=%d&limit=%d", skip, limit)
	if err := a.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *EmployeeAPI) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	var out domain.Employee
	if err := a.client.get(ctx, fmt.Sprintf("/employees/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *EmployeeAPI) Create(ctx context.Context, req domain.CreateEmployeeRequest) (*domain.Employee, error) {
	var out domain.Employee
	if err := a.client.post(ctx, "/employees", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *EmployeeAPI) Update(ctx context.Context, id int64, req domain.UpdateEmployeeRequest) (*domain.Employee, error) {
	var out domain.Employee
	if err := a.client.put(ctx, fmt.Sprintf("/employees/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *EmployeeAPI) Delete(ctx context.Context, id int64) error {
	return a.client.delete(ctx, fmt.Sprintf("/employees/%d", id))
}
