package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"moove/internal/dto/req"
	"moove/internal/dto/resp"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	RedisSessionPrefix = "moove:auth:session:"
	Issuer             = "moove-theme-service"
	adminUserID        = "1"
	adminRole          = "admin"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrSessionExpired     = errors.New("session expired")
)

// AdminCredentials is the single administrator allowed to change settings.
type AdminCredentials struct {
	Username string
	Password string
}

type AuthService struct {
	redis           redis.Cmdable
	secret          []byte
	admin           AdminCredentials
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

type UserClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"sub"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

func NewAuthService(rdb redis.Cmdable, secret []byte, admin AdminCredentials, accessTokenTTL, refreshTokenTTL time.Duration) *AuthService {
	return &AuthService{
		redis:           rdb,
		secret:          secret,
		admin:           admin,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		now:             time.Now,
	}
}

func sessionKey(userID string) string {
	return RedisSessionPrefix + userID
}

// Login checks the configured administrator and returns a token pair.
func (s *AuthService) Login(ctx context.Context, r req.LoginReq) (*resp.TokenResp, error) {
	if s.admin.Password == "" ||
		subtle.ConstantTimeCompare([]byte(r.Username), []byte(s.admin.Username)) != 1 ||
		subtle.ConstantTimeCompare([]byte(r.Password), []byte(s.admin.Password)) != 1 {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(ctx, adminUserID, r.Username, adminRole)
	if err != nil {
		return nil, err
	}
	tokens.User = resp.UserInfo{
		ID:       adminUserID,
		Username: r.Username,
		Role:     adminRole,
	}
	return tokens, nil
}

// parseToken validates a token signed with the service secret and checks
// that it was issued as tokenType.
func (s *AuthService) parseToken(tokenString, tokenType string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.Type != tokenType {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseAccessToken accepts only access tokens; refresh tokens are rejected.
func (s *AuthService) ParseAccessToken(tokenString string) (*UserClaims, error) {
	return s.parseToken(tokenString, TokenTypeAccess)
}

func (s *AuthService) ParseRefreshToken(tokenString string) (*UserClaims, error) {
	return s.parseToken(tokenString, TokenTypeRefresh)
}

// Refresh rotates the token pair. The presented refresh token must be the
// one currently allow-listed for the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*resp.TokenResp, error) {
	claims, err := s.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	stored, err := s.redis.Get(ctx, sessionKey(claims.UserID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if stored != refreshToken {
		return nil, ErrTokenInvalid
	}

	return s.generateTokens(ctx, claims.UserID, claims.Username, claims.Role)
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, sessionKey(userID)).Err()
}

func (s *AuthService) sign(tokenType, userID, username, role, jti string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := UserClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) generateTokens(ctx context.Context, userID, username, role string) (*resp.TokenResp, error) {
	accessToken, err := s.sign(TokenTypeAccess, userID, username, role, "", s.accessTokenTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.sign(TokenTypeRefresh, userID, username, role, uuid.New().String(), s.refreshTokenTTL)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, sessionKey(userID), refreshToken, s.refreshTokenTTL).Err(); err != nil {
		return nil, fmt.Errorf("store refresh session: %w", err)
	}

	return &resp.TokenResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
	}, nil
}
