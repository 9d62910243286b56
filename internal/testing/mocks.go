package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/fleetstack/internal/materializer"
)

// MockMaterializer is a testify mock of materializer.Materializer.
type MockMaterializer struct {
	mock.Mock
}

// CreateOrUpdate implements materializer.Materializer. A function passed
// to Return is called with the arguments.
func (m *MockMaterializer) CreateOrUpdate(ctx context.Context, desired materializer.Desired) (materializer.Result, error) {
	args := m.Called(ctx, desired)
	if fn, ok := args.Get(0).(func(context.Context, materializer.Desired) (materializer.Result, error)); ok {
		return fn(ctx, desired)
	}
	return args.Get(0).(materializer.Result), args.Error(1)
}

// Delete implements materializer.Materializer.
func (m *MockMaterializer) Delete(ctx context.Context, target materializer.Target) (materializer.Result, error) {
	args := m.Called(ctx, target)
	if fn, ok := args.Get(0).(func(context.Context, materializer.Target) (materializer.Result, error)); ok {
		return fn(ctx, target)
	}
	return args.Get(0).(materializer.Result), args.Error(1)
}

// NewMockMaterializer creates a MockMaterializer that completes every call
// with an identity derived from the entity key.
func NewMockMaterializer() *MockMaterializer {
	m := &MockMaterializer{}
	m.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(func(_ context.Context, d materializer.Desired) (materializer.Result, error) {
		return materializer.Result{Identity: "id-" + d.Key.Name, Status: materializer.StatusComplete}, nil
	}, nil)
	m.On("Delete", mock.Anything, mock.Anything).Return(func(_ context.Context, t materializer.Target) (materializer.Result, error) {
		return materializer.Result{Identity: t.Identity, Status: materializer.StatusComplete}, nil
	}, nil)
	return m
}
