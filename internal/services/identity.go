package services

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/platform/apierr"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
)

var errUnauthenticated = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))

// requireUser returns the caller identity attached by the auth middleware.
func requireUser(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errUnauthenticated
	}
	return rd, nil
}

func parseRequiredUUID(raw, code, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, apierr.BadRequest(code, field+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apierr.BadRequest(code, "invalid "+field)
	}
	return id, nil
}

func floatOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	return *v
}

// wholeSeconds rounds a client-reported seconds value. Sign is preserved.
func wholeSeconds(v *float64) int {
	return int(math.Round(floatOr(v, 0)))
}
