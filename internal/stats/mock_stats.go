package stats

import "github.com/stretchr/testify/mock"

type MockStatsUpdater struct {
	mock.Mock
}

func (m *MockStatsUpdater) Incr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Decr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) RegisterMetric(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Snapshot() map[string]int64 {
	args := m.Called()
	if snap, ok := args.Get(0).(map[string]int64); ok {
		return snap
	}
	return nil
}
func (m *MockStatsUpdater) Run() {
	m.Called()
}
