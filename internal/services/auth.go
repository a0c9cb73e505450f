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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/platform/apierr"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/ctxutil"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	SeedUsers(ctx context.Context, count int, password string) (int, error)
	Me(ctx context.Context) (*types.User, error)
	GetAccessTTL() time.Duration
}

type LoginResult struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Token    string    `json:"token"`
}

type JWTClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	clock        clock.Clock
	jwtSecretKey string
	accessTTL    time.Duration
	bcryptCost   int
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, clk clock.Clock, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if clk == nil {
		clk = clock.System(time.Local)
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		clock:        clk,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

func invalidCredentials() error {
	return apierr.New(http.StatusUnauthorized, "invalid_credentials", ErrInvalidCredentials)
}

func (as *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apierr.New(http.StatusBadRequest, "validation_error", fmt.Errorf("username and password are required"))
	}
	user, err := as.userRepo.GetByUsername(dbctx.Context{Ctx: ctx}, username)
	if err != nil {
		as.log.Error("Login lookup failed", "error", err)
		return nil, err
	}
	if user == nil {
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	tok, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	as.log.Info("User logged in", "user_id", user.ID)
	return &LoginResult{ID: user.ID, Username: user.Username, Token: tok}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.clock.Now()
	claims := JWTClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates tokenString and attaches the caller to ctx.
// An empty token leaves ctx unchanged.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.clock.Now))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Username:    claims.Username,
	}), nil
}

// SeedUsers creates user1..userN with password when absent and returns how
// many were created.
func (as *authService) SeedUsers(ctx context.Context, count int, password string) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	if password == "" {
		return 0, fmt.Errorf("seed password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash seed password: %w", err)
	}
	created := 0
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		now := as.clock.Now().UTC()
		for i := 1; i <= count; i++ {
			ok, err := as.userRepo.CreateIfAbsent(dbc, &types.User{
				ID:        uuid.New(),
				Username:  fmt.Sprintf("user%d", i),
				Password:  string(hash),
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		as.log.Error("Seeding users failed", "error", err)
		return 0, err
	}
	as.log.Info("Seeded users", "requested", count, "created", created)
	return created, nil
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	u, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, owner)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.New(http.StatusNotFound, "user_not_found", fmt.Errorf("user does not exist"))
	}
	return u, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
