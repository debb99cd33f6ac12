package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/karmnik-backend/internal/middleware"
	"github.com/AnshRaj112/karmnik-backend/pkg/utils"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestCORS_AllowedOrigin(t *testing.T) {
	h := middleware.CORS([]string{"https://Karmnik.example.com"})(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/feedings", nil)
	req.Header.Set("Origin", "https://karmnik.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://karmnik.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), middleware.WriteKeyHeader)
}

func TestCORS_UnknownOriginAndPreflight(t *testing.T) {
	h := middleware.CORS([]string{"https://karmnik.example.com"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/feedings", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHostCheck(t *testing.T) {
	h := middleware.HostCheck("karmnik.example.com")(ok)

	req := httptest.NewRequest(http.MethodGet, "http://karmnik.example.com:8080/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "http://other.example.com/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.SecurityHeaders(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, middleware.ContentSecurityPolicy, rec.Header().Get("Content-Security-Policy"))
}

func TestWriteKey(t *testing.T) {
	hash, err := utils.HashSecret("mruczek")
	require.NoError(t, err)
	h := middleware.WriteKey(hash)(ok)

	cases := []struct {
		name   string
		method string
		key    string
		want   int
	}{
		{"read needs no key", http.MethodGet, "", http.StatusNoContent},
		{"write without key", http.MethodPost, "", http.StatusUnauthorized},
		{"write with wrong key", http.MethodDelete, "burek", http.StatusUnauthorized},
		{"write with key", http.MethodPost, "mruczek", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/feedings", nil)
			if tc.key != "" {
				req.Header.Set(middleware.WriteKeyHeader, tc.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestWriteKey_DisabledWithoutHash(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.WriteKey("")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feedings", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWriteRateLimit(t *testing.T) {
	h := middleware.WriteRateLimit(ok)

	var codes []int
	for i := 0; i < 7; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/feedings", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, http.StatusNoContent, codes[0])
	require.Equal(t, http.StatusTooManyRequests, codes[6])

	// Reads are never write-limited.
	req := httptest.NewRequest(http.MethodGet, "/api/feedings", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRedisRateLimit_NilClientPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.RedisRateLimit(nil)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feedings", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
