package router

import (
	"net/http"
	"testing"

	"github.com/FACorreiaa/ocop-products/internal/types"
)

func BenchmarkHealth(b *testing.B) {
	s := newTestServer(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rec := s.do(http.MethodGet, "/api/health", ""); rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkGateAllowed(b *testing.B) {
	s := newTestServer(b)
	_, tok := s.userWithToken(b, types.RoleManager)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rec := s.do(http.MethodGet, "/api/auth/me", tok); rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkGateDenied(b *testing.B) {
	s := newTestServer(b)
	_, tok := s.userWithToken(b, types.RoleUser)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rec := s.do(http.MethodGet, "/api/dashboard/overview", tok); rec.Code != http.StatusForbidden {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkMissingToken(b *testing.B) {
	s := newTestServer(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rec := s.do(http.MethodGet, "/api/users", ""); rec.Code != http.StatusUnauthorized {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
