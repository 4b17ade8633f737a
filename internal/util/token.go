package util

import (
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/config"
	"github.com/raids-lab/approvalflow/pkg/logutils"
)

type (
	JWTClaims struct {
		UserID       uint       `json:"ui"`
		Username     string     `json:"un"`
		Avatar       string     `json:"av,omitempty"`
		WorkspaceID  uint       `json:"wi"`
		RolePlatform model.Role `json:"rp"`
		jwt.RegisteredClaims
	}
	JWTMessage struct {
		UserID       uint       `json:"userID"`       // User ID
		Username     string     `json:"username"`     // Username
		Avatar       string     `json:"avatar"`       // Avatar URL
		WorkspaceID  uint       `json:"workspaceID"`  // Current workspace
		RolePlatform model.Role `json:"rolePlatform"` // Role in platform (e.g. guest, user, admin)
	}
)

type TokenManager struct {
	secretKey      string
	accessTokenTTL time.Duration
}

var (
	once     sync.Once
	tokenMgr *TokenManager
)

func GetTokenMgr() *TokenManager {
	once.Do(func() {
		cfg := config.GetConfig()
		tokenMgr = NewTokenManager(cfg.Auth.AccessTokenSecret, cfg.AccessTokenTTL())
	})
	return tokenMgr
}

func NewTokenManager(secretKey string, accessTokenTTL time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:      secretKey,
		accessTokenTTL: accessTokenTTL,
	}
}

// CreateToken signs an access token for msg.
func (tm *TokenManager) CreateToken(msg *JWTMessage) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:       msg.UserID,
		Username:     msg.Username,
		Avatar:       msg.Avatar,
		WorkspaceID:  msg.WorkspaceID,
		RolePlatform: msg.RolePlatform,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(tm.secretKey))
	if err != nil {
		logutils.Log.Error(err)
		return "", err
	}
	return signed, nil
}

func (tm *TokenManager) CheckToken(requestToken string) (JWTMessage, error) {
	claims := JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(tm.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return JWTMessage{
		UserID:       claims.UserID,
		Username:     claims.Username,
		Avatar:       claims.Avatar,
		WorkspaceID:  claims.WorkspaceID,
		RolePlatform: claims.RolePlatform,
	}, err
}
