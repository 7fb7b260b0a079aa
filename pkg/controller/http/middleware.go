package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/usecase"
	"github.com/secmon-lab/hippo/pkg/utils/errutil"
)

type ctxSessionKey struct{}

func sessionFromContext(ctx context.Context) *usecase.Session {
	sess, _ := ctx.Value(ctxSessionKey{}).(*usecase.Session)
	return sess
}

func sessionIDParam(r *http.Request) model.SessionID {
	return model.SessionID(chi.URLParam(r, "sessionID"))
}

// sessionMiddleware resolves the session named in the path, loading its
// memory when it is not live yet
func sessionMiddleware(sessions *usecase.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Get(r.Context(), sessionIDParam(r))
			if err != nil {
				if errors.Is(err, usecase.ErrInvalidSession) {
					writeError(w, http.StatusBadRequest, "invalid session ID", "")
					return
				}
				errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
