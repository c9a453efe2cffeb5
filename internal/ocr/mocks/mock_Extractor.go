// Package mocks provides test doubles for OCR extractors.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockExtractor is a mock type for the ocr.Extractor interface.
type MockExtractor struct {
	mock.Mock
}

// ExtractText provides a mock function with given fields: ctx, image, mediaType
func (_m *MockExtractor) ExtractText(ctx context.Context, image []byte, mediaType string) (string, error) {
	ret := _m.Called(ctx, image, mediaType)

	if len(ret) == 0 {
		panic("no return value specified for ExtractText")
	}

	if rf, ok := ret.Get(0).(func(context.Context, []byte, string) (string, error)); ok {
		return rf(ctx, image, mediaType)
	}
	return ret.String(0), ret.Error(1)
}

// NewMockExtractor creates a new instance of MockExtractor.
func NewMockExtractor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockExtractor {
	mock := &MockExtractor{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
