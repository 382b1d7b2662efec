package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallethub/ledger/internal/resilience/degradation"
)

// ============================================
// Test Setup
// ============================================

func setupHealthTestRouter() (*gin.Engine, *HealthHandler) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := NewHealthHandler(nil, degradation.NewManager(), "1.0.0", "2024-01-01T00:00:00Z")
	return router, handler
}

// ============================================
// Test NewHealthHandler
// ============================================

func TestNewHealthHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		version := "1.2.3"
		buildTime := "2024-01-15T10:30:00Z"

		// Act
		handler := NewHealthHandler(nil, degradation.NewManager(), version, buildTime)

		// Assert
		assert.NotNil(t, handler)
		assert.Equal(t, version, handler.version)
		assert.Equal(t, buildTime, handler.buildTime)
		assert.False(t, handler.startTime.IsZero())
	})

	t.Run("WithPool", func(t *testing.T) {
		// Arrange
		var pool *pgxpool.Pool // В реальных тестах это был бы mock

		// Act
		handler := NewHealthHandler(pool, degradation.NewManager(), "1.0.0", "2024-01-01")

		// Assert
		assert.NotNil(t, handler)
		assert.Equal(t, pool, handler.pool)
	})
}

// ============================================
// Test Health Endpoint
// ============================================

func TestHealthHandler_Health(t *testing.T) {
	t.Run("Success_ReturnsHealthyStatus", func(t *testing.T) {
		// Arrange
		router, handler := setupHealthTestRouter()
		router.GET("/health", handler.Health)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response HealthResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)

		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "2024-01-01T00:00:00Z", response.BuildTime)
		assert.NotEmpty(t, response.Uptime)
		assert.False(t, response.Timestamp.IsZero())
		assert.Nil(t, response.Checks) // Basic health doesn't include checks
	})

	t.Run("ChecksUptime", func(t *testing.T) {
		// Arrange
		router, handler := setupHealthTestRouter()
		router.GET("/health", handler.Health)

		time.Sleep(100 * time.Millisecond) // Wait to have some uptime

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert
		var response HealthResponse
		_ = json.Unmarshal(w.Body.Bytes(), &response)

		// Uptime should be non-empty (may be "0s" due to rounding, but should exist)
		assert.NotEmpty(t, response.Uptime)
	})
}

// ============================================
// Test Live Endpoint
// ============================================

func TestHealthHandler_Live(t *testing.T) {
	t.Run("Success_AlwaysReturnsAlive", func(t *testing.T) {
		// Arrange
		router, handler := setupHealthTestRouter()
		router.GET("/live", handler.Live)

		req := httptest.NewRequest(http.MethodGet, "/live", nil)
		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]string
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)

		assert.Equal(t, "alive", response["status"])
	})
}

// ============================================
// Test Ready Endpoint (Without Pool)
// ============================================

func TestHealthHandler_Ready_WithoutPool(t *testing.T) {
	t.Run("NoPool_ReturnsNotConfigured", func(t *testing.T) {
		// Arrange
		router, handler := setupHealthTestRouter()
		router.GET("/ready", handler.Ready)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response ReadinessResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)

		assert.True(t, response.Ready)
		assert.Equal(t, "not configured", response.Checks["database"])
		assert.False(t, response.Timestamp.IsZero())
	})
}

// ============================================
// Test Ready Endpoint (With Mock Pool)
// ============================================

// MockPool simulates pgxpool.Pool for testing
type MockPool struct {
	pingError error
}

func (m *MockPool) Ping(ctx context.Context) error {
	return m.pingError
}

func (m *MockPool) Stat() *pgxpool.Stat {
	// Return mock stats
	return &pgxpool.Stat{}
}

func TestHealthHandler_Ready_WithPool(t *testing.T) {
	t.Run("NoPool_ReturnsReady", func(t *testing.T) {
		// Arrange
		gin.SetMode(gin.TestMode)
		router := gin.New()

		// Create handler with no pool; Ready skips the database ping
		handler := &HealthHandler{
			pool:      nil,
			degrader:  degradation.NewManager(),
			version:   "1.0.0",
			buildTime: "2024-01-01",
			startTime: time.Now(),
		}

		router.GET("/ready", handler.Ready)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response ReadinessResponse
		_ = json.Unmarshal(w.Body.Bytes(), &response)
		assert.True(t, response.Ready)
	})
}

// ============================================
// Test DetailedHealth Endpoint
// ============================================

func TestHealthHandler_DetailedHealth(t *testing.T) {
	t.Run("Success_ReturnsDetailedInfo", func(t *testing.T) {
		// Arrange
		router, handler := setupHealthTestRouter()
		router.GET("/health/detailed", handler.DetailedHealth)

		req := httptest.NewRequest(http.MethodGet, "/health/detailed", nil)
		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response HealthResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)

		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "2024-01-01T00:00:00Z", response.BuildTime)
		assert.NotEmpty(t, response.Uptime)
		assert.False(t, response.Timestamp.IsZero())
		// Checks may be nil or empty when no pool is configured
	})

	t.Run("NoPool_StillReturnsHealthy", func(t *testing.T) {
		// Arrange
		router, handler := setupHealthTestRouter()
		router.GET("/health/detailed", handler.DetailedHealth)

		req := httptest.NewRequest(http.MethodGet, "/health/detailed", nil)
		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert
		var response HealthResponse
		_ = json.Unmarshal(w.Body.Bytes(), &response)

		// When no pool, should still report healthy
		assert.Equal(t, "healthy", response.Status)
		assert.Empty(t, response.Checks) // No checks added when pool is nil
	})
}

// ============================================
// Test RegisterRoutes
// ============================================

func TestHealthHandler_RegisterRoutes(t *testing.T) {
	t.Run("Success_RegistersAllRoutes", func(t *testing.T) {
		// Arrange
		gin.SetMode(gin.TestMode)
		router := gin.New()
		handler := NewHealthHandler(nil, degradation.NewManager(), "1.0.0", "2024-01-01")

		// Act
		handler.RegisterRoutes(router)

		// Assert - Test each route is registered
		routes := router.Routes()

		routeMap := make(map[string]string)
		for _, route := range routes {
			routeMap[route.Path] = route.Method
		}

		assert.Equal(t, "GET", routeMap["/health"])
		assert.Equal(t, "GET", routeMap["/health/detailed"])
		assert.Equal(t, "GET", routeMap["/ready"])
		assert.Equal(t, "GET", routeMap["/live"])
	})

	t.Run("AllRoutesRespond", func(t *testing.T) {
		// Arrange
		gin.SetMode(gin.TestMode)
		router := gin.New()
		handler := NewHealthHandler(nil, degradation.NewManager(), "1.0.0", "2024-01-01")
		handler.RegisterRoutes(router)

		testCases := []struct {
			name           string
			path           string
			expectedStatus int
		}{
			{"Health", "/health", http.StatusOK},
			{"Live", "/live", http.StatusOK},
			{"Ready", "/ready", http.StatusOK},
			{"DetailedHealth", "/health/detailed", http.StatusOK},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, tc.path, nil)
				w := httptest.NewRecorder()

				router.ServeHTTP(w, req)

				assert.Equal(t, tc.expectedStatus, w.Code)
			})
		}
	})
}

// ============================================
// Integration Test Scenarios
// ============================================

func TestHealthHandler_IntegrationScenarios(t *testing.T) {
	t.Run("MultipleHealthChecks_ConsistentUptime", func(t *testing.T) {
		// Arrange
		router, handler := setupHealthTestRouter()
		router.GET("/health", handler.Health)

		// Act - Call health check multiple times
		var responses []HealthResponse
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			var response HealthResponse
			_ = json.Unmarshal(w.Body.Bytes(), &response)
			responses = append(responses, response)

			time.Sleep(10 * time.Millisecond)
		}

		// Assert - Version and build time should be consistent
		for i := 1; i < len(responses); i++ {
			assert.Equal(t, responses[0].Version, responses[i].Version)
			assert.Equal(t, responses[0].BuildTime, responses[i].BuildTime)
			assert.Equal(t, responses[0].Status, responses[i].Status)
		}
	})
}

// ============================================
// Edge Cases and Error Handling
// ============================================

func TestHealthHandler_EdgeCases(t *testing.T) {
	t.Run("ReadyEndpoint_WithContextTimeout", func(t *testing.T) {
		// Arrange
		gin.SetMode(gin.TestMode)
		router := gin.New()

		handler := NewHealthHandler(nil, degradation.NewManager(), "1.0.0", "2024-01-01")
		router.GET("/ready", handler.Ready)

		// Create request with already cancelled context
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		ctx, cancel := context.WithCancel(req.Context())
		cancel() // Cancel immediately
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert - Should still respond (context cancellation handled by pool.Ping)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("EmptyVersion_StillWorks", func(t *testing.T) {
		// Arrange
		router := gin.New()
		handler := NewHealthHandler(nil, degradation.NewManager(), "", "")
		router.GET("/health", handler.Health)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		// Act
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response HealthResponse
		_ = json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "healthy", response.Status)
		assert.Empty(t, response.Version)
		assert.Empty(t, response.BuildTime)
	})
}

// ============================================
// Mock Pool Tests with Ping Failures
// ============================================

func TestHealthHandler_PoolPingFailures(t *testing.T) {
	// Note: In real scenario with actual pgxpool.Pool, we'd test ping failures
	// For now, we demonstrate the structure

	t.Run("NoPool_DetailedHealthStaysHealthy", func(t *testing.T) {
		// With no pool configured the database check is skipped, so detailed
		// health stays healthy.

		gin.SetMode(gin.TestMode)
		router := gin.New()
		handler := NewHealthHandler(nil, degradation.NewManager(), "1.0.0", "2024-01-01")
		router.GET("/health/detailed", handler.DetailedHealth)

		req := httptest.NewRequest(http.MethodGet, "/health/detailed", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		// When no pool, status remains healthy
		var response HealthResponse
		_ = json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "healthy", response.Status)
	})
}

// ============================================
// Benchmark Tests
// ============================================

func BenchmarkHealthHandler_Health(b *testing.B) {
	router, handler := setupHealthTestRouter()
	router.GET("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

func BenchmarkHealthHandler_Live(b *testing.B) {
	router, handler := setupHealthTestRouter()
	router.GET("/live", handler.Live)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// ============================================
// Helper to test error scenarios
// ============================================

func TestHealthHandler_DatabaseErrors(t *testing.T) {
	t.Run("PingTimeout", func(t *testing.T) {
		// Test that ping timeout is handled gracefully
		// Would need proper mock implementation

		assert.True(t, true) // Placeholder
	})

	t.Run("PingError", func(t *testing.T) {
		// Test database connection errors
		mockErr := errors.New("connection refused")

		// In real test, would inject mock pool with error
		assert.NotNil(t, mockErr)
	})
}


