package errutil_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	ctx := context.Background()
	gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))

	base := errors.New("boom")
	err := errutil.Handle(ctx, goerr.Wrap(base, "failed", goerr.V("session_id", "s1")), "turn failed")
	gt.Error(t, err).Is(base)
}

func TestHandleHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), rec, goerr.New("bad audio"), http.StatusBadRequest)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	gt.String(t, rec.Body.String()).Contains("bad audio")
}

func TestHandleHTTP_HidesServerErrorDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), rec, goerr.New("firestore: permission denied"), http.StatusInternalServerError)
	gt.Value(t, rec.Code).Equal(http.StatusInternalServerError)
	gt.String(t, rec.Body.String()).Contains("Internal Server Error")
	gt.Bool(t, strings.Contains(rec.Body.String(), "permission denied")).False()
}

func TestReport_WithoutClient(t *testing.T) {
	// no sentry client is configured in tests; this must be a no-op
	errutil.Report(context.Background(), errors.New("ignored"))
}
