package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/apierr"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// JWTClaims is the identity the user directory signs for us.
type JWTClaims struct {
	Role        string `json:"role"`
	LearnerType string `json:"learner_type"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// SetContextFromToken verifies tokenString and attaches the identity.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(u *types.User, ttl time.Duration) (string, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	now          func() time.Time
}

func NewAuthService(baseLog *logger.Logger, jwtSecretKey string) AuthService {
	return &authService{
		log:          baseLog.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
		now:          time.Now,
	}
}

var errInvalidToken = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("invalid or expired token"))

func (as *authService) IssueToken(u *types.User, ttl time.Duration) (string, error) {
	if u == nil || u.ID == uuid.Nil {
		return "", fmt.Errorf("issue token: user id required")
	}
	if as.jwtSecretKey == "" {
		return "", fmt.Errorf("issue token: JWT secret not configured")
	}
	now := as.now()
	claims := JWTClaims{
		Role:        u.Role,
		LearnerType: u.LearnerType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, errInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		as.log.Debug("token rejected", "error", err)
		return ctx, errInvalidToken
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, errInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, errInvalidToken
	}
	role := claims.Role
	if role == "" {
		role = ctxutil.RoleLearner
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        role,
		LearnerType: claims.LearnerType,
	}), nil
}
