package service

import (
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockAppServiceCreator is a mock implementation for the AppServiceCreator interface
type MockAppServiceCreator struct {
	mock.Mock
}

func appService(args mock.Arguments) interfaces.ApplicationService {
	if svc, ok := args.Get(0).(interfaces.ApplicationService); ok {
		return svc
	}
	return nil
}

func (m *MockAppServiceCreator) NewAppService(serviceKey string) (interfaces.ApplicationService, bool) {
	args := m.Called(serviceKey)
	return appService(args), args.Bool(1)
}

func (m *MockAppServiceCreator) NewAppServiceWithTargetType(serviceKey string, targetType interface{}) (interfaces.ApplicationService, bool) {
	args := m.Called(serviceKey, targetType)
	return appService(args), args.Bool(1)
}
