package redis

import (
	"github.com/go-redsync/redsync/v4"
	"github.com/stretchr/testify/mock"

	hedgeErrors "machinehealth/common/errors"
)

// MockMachineHealthDBInterface is a mock implementation for the MachineHealthDBInterface interface
type MockMachineHealthDBInterface struct {
	mock.Mock
}

func hedgeError(args mock.Arguments, i int) hedgeErrors.HedgeError {
	if e, ok := args.Get(i).(hedgeErrors.HedgeError); ok {
		return e
	}
	return nil
}

func (m *MockMachineHealthDBInterface) SaveSnapshotBlob(name string, data []byte) hedgeErrors.HedgeError {
	args := m.Called(name, data)
	return hedgeError(args, 0)
}

func (m *MockMachineHealthDBInterface) GetSnapshotBlob(name string) ([]byte, hedgeErrors.HedgeError) {
	args := m.Called(name)
	var res []byte
	if args.Get(0) != nil {
		res = args.Get(0).([]byte)
	}
	return res, hedgeError(args, 1)
}

func (m *MockMachineHealthDBInterface) ListSnapshotNames() ([]string, hedgeErrors.HedgeError) {
	args := m.Called()
	var res []string
	if args.Get(0) != nil {
		res = args.Get(0).([]string)
	}
	return res, hedgeError(args, 1)
}

func (m *MockMachineHealthDBInterface) IncrMetricCounterBy(key string, value int64) (int64, hedgeErrors.HedgeError) {
	args := m.Called(key, value)
	var res int64
	if args.Get(0) != nil {
		res = args.Get(0).(int64)
	}
	return res, hedgeError(args, 1)
}

func (m *MockMachineHealthDBInterface) GetMetricCounter(key string) (int64, hedgeErrors.HedgeError) {
	args := m.Called(key)
	var res int64
	if args.Get(0) != nil {
		res = args.Get(0).(int64)
	}
	return res, hedgeError(args, 1)
}

func (m *MockMachineHealthDBInterface) AcquireRedisLock(lockName string) (*redsync.Mutex, hedgeErrors.HedgeError) {
	args := m.Called(lockName)
	var res *redsync.Mutex
	if args.Get(0) != nil {
		res = args.Get(0).(*redsync.Mutex)
	}
	return res, hedgeError(args, 1)
}
