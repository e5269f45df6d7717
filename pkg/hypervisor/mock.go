package hypervisor

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSession 是 Session 的 mock 实现
type MockSession struct {
	mock.Mock
}

// NewMockSession 创建新的 MockSession
func NewMockSession() *MockSession {
	return &MockSession{}
}

func (m *MockSession) Call(ctx context.Context, method string, args ...string) ([]string, error) {
	callArgs := m.Called(ctx, method, args)
	if callArgs.Get(0) == nil {
		return nil, callArgs.Error(1)
	}
	return callArgs.Get(0).([]string), callArgs.Error(1)
}

func (m *MockSession) CallAsync(ctx context.Context, method string, args ...string) (TaskRef, error) {
	callArgs := m.Called(ctx, method, args)
	return callArgs.Get(0).(TaskRef), callArgs.Error(1)
}

func (m *MockSession) CallPluginAsync(ctx context.Context, plugin, fn string, args map[string]string) (TaskRef, error) {
	callArgs := m.Called(ctx, plugin, fn, args)
	return callArgs.Get(0).(TaskRef), callArgs.Error(1)
}

func (m *MockSession) WaitForTask(ctx context.Context, requestID string, task TaskRef) (string, error) {
	args := m.Called(ctx, requestID, task)
	return args.String(0), args.Error(1)
}

func (m *MockSession) GetVDIRecord(ctx context.Context, vdi VDIRef) (*VDIRecord, error) {
	args := m.Called(ctx, vdi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VDIRecord), args.Error(1)
}

func (m *MockSession) GetVDIByUUID(ctx context.Context, uuid string) (VDIRef, error) {
	args := m.Called(ctx, uuid)
	return args.Get(0).(VDIRef), args.Error(1)
}

func (m *MockSession) GetVMRecord(ctx context.Context, vm VMRef) (*VMRecord, error) {
	args := m.Called(ctx, vm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VMRecord), args.Error(1)
}

func (m *MockSession) GetVMVBDs(ctx context.Context, vm VMRef) ([]VBDRef, error) {
	args := m.Called(ctx, vm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]VBDRef), args.Error(1)
}

func (m *MockSession) GetVBDVDI(ctx context.Context, vbd VBDRef) (VDIRef, error) {
	args := m.Called(ctx, vbd)
	return args.Get(0).(VDIRef), args.Error(1)
}

var _ Session = (*MockSession)(nil)
