// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/williamokano/s3compat/pkg/storage"
)

// MockStore is a mock implementation of the storage.Store interface
type MockStore struct {
	mock.Mock
}

// ListBuckets provides a mock function with given fields: ctx
func (m *MockStore) ListBuckets(ctx context.Context) ([]string, error) {
	ret := m.Called(ctx)

	var r0 []string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]string, error)); ok {
		return rf(ctx)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// ListObjects provides a mock function with given fields: ctx, path
func (m *MockStore) ListObjects(ctx context.Context, path string) ([]storage.ObjectEntry, error) {
	ret := m.Called(ctx, path)

	var r0 []storage.ObjectEntry
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]storage.ObjectEntry, error)); ok {
		return rf(ctx, path)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]storage.ObjectEntry)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// PresignGet provides a mock function with given fields: key
func (m *MockStore) PresignGet(key string) (string, error) {
	ret := m.Called(key)

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(string) (string, error)); ok {
		return rf(key)
	}
	r0 = ret.String(0)
	r1 = ret.Error(1)

	return r0, r1
}

// DownloadURL provides a mock function with given fields: fileURL
func (m *MockStore) DownloadURL(fileURL string) (string, error) {
	ret := m.Called(fileURL)

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(string) (string, error)); ok {
		return rf(fileURL)
	}
	r0 = ret.String(0)
	r1 = ret.Error(1)

	return r0, r1
}

// IsManagedURL provides a mock function with given fields: fileURL
func (m *MockStore) IsManagedURL(fileURL string) bool {
	ret := m.Called(fileURL)

	var r0 bool
	if rf, ok := ret.Get(0).(func(string) bool); ok {
		r0 = rf(fileURL)
	} else {
		r0 = ret.Bool(0)
	}

	return r0
}

// Upload provides a mock function with given fields: ctx, key, localPath
func (m *MockStore) Upload(ctx context.Context, key string, localPath string) (*storage.UploadResult, error) {
	ret := m.Called(ctx, key, localPath)

	var r0 *storage.UploadResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (*storage.UploadResult, error)); ok {
		return rf(ctx, key, localPath)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*storage.UploadResult)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockStore creates a new instance of MockStore
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	mock_1 := &MockStore{}
	mock_1.Mock.Test(t)

	t.Cleanup(func() { mock_1.AssertExpectations(t) })

	return mock_1
}
