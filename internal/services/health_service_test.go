package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/revaldyhazza/analisadolproperty/internal/infrastructure"
	"github.com/revaldyhazza/analisadolproperty/internal/shared/testutil"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts"
)

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) SessionCount() int {
	return m.Called().Int(0)
}

func (m *mockCounter) ClientCount() int {
	return m.Called().Int(0)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		sessions   SessionCounter
		clients    ClientCounter
		wantStatus string
	}{
		{
			name: "all services ready",
			sessions: func() SessionCounter {
				m := &mockCounter{}
				m.On("SessionCount").Return(3)
				return m
			}(),
			clients: func() ClientCounter {
				m := &mockCounter{}
				m.On("ClientCount").Return(2)
				return m
			}(),
			wantStatus: "ready",
		},
		{
			name:       "missing analysis service",
			wantStatus: "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService(tt.sessions, tt.clients, nil, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, contracts.Version, status.Version)
			require.Contains(t, status.Services, "sessions")
			require.Contains(t, status.Services, "websocket")
		})
	}
}

func TestHealthService_ReadinessReportsCounts(t *testing.T) {
	sessions := &mockCounter{}
	sessions.On("SessionCount").Return(4)
	clients := &mockCounter{}
	clients.On("ClientCount").Return(1)

	hs := NewHealthService(sessions, clients, nil, nil)
	status := hs.ReadinessCheck(context.Background())

	assert.Equal(t, "4 active sessions", status.Services["sessions"].(ServiceHealth).Message)
	assert.Equal(t, "1 connected clients", status.Services["websocket"].(ServiceHealth).Message)
	sessions.AssertExpectations(t)
	clients.AssertExpectations(t)
}

func TestHealthService_LivenessCheck(t *testing.T) {
	system, err := infrastructure.NewSystemMetrics(nil, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	t.Cleanup(func() { _ = system.Close() })

	hs := NewHealthService(nil, nil, system, nil)
	status := hs.LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "goroutines")
	assert.Contains(t, status.Runtime, "heap_alloc_bytes")
	assert.Positive(t, status.Runtime["cpu_count"])
}

func TestHealthService_HealthAndVersion(t *testing.T) {
	hs := NewHealthService(nil, nil, nil, nil)

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)

	v := hs.Version()
	assert.Equal(t, contracts.Version, v["version"])
	assert.Equal(t, contracts.APIVersion, v["api_version"])
	assert.Contains(t, v, "go_version")
	assert.Contains(t, v, "uptime")
}
