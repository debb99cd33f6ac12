package middleware

import (
	"net/http"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/pkg/utils"
)

// WriteKeyHeader carries the household write key.
const WriteKeyHeader = "X-Feeder-Key"

// WriteKey rejects feedings writes whose X-Feeder-Key does not match hash.
// An empty hash leaves writes open.
func WriteKey(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isWrite(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(WriteKeyHeader)
			ok := false
			if key != "" {
				var err error
				ok, err = utils.VerifySecret(key, hash)
				if err != nil {
					logger.Error("write key hash unusable", "module", "middleware", "error", err)
				}
			}
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"message":"Nieprawidłowy klucz."}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
