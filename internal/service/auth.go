package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig 认证配置，未设置密钥时写操作不需要令牌
type AuthConfig struct {
	SecretKey     string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenDuration time.Duration `yaml:"token_duration" env:"JWT_TTL" env-default:"24h"`
}

// Claims JWT声明
type Claims struct {
	Editor string `json:"editor"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth 认证服务
type Auth struct {
	config AuthConfig
}

// NewAuth 创建认证服务实例
func NewAuth(config AuthConfig) *Auth {
	if config.TokenDuration <= 0 {
		config.TokenDuration = 24 * time.Hour
	}
	return &Auth{config: config}
}

// Enabled 是否启用认证
func (a *Auth) Enabled() bool {
	return a.config.SecretKey != ""
}

// GenerateToken 生成JWT令牌
func (a *Auth) GenerateToken(editor, role string) (string, error) {
	if !a.Enabled() {
		return "", NewError(ErrConfig, "JWT_SECRET is not configured", nil)
	}

	now := time.Now()
	claims := Claims{
		Editor: editor,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   editor,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	// 创建令牌
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.config.SecretKey))
}

// ValidateToken 验证JWT令牌
func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.config.SecretKey), nil
	})
	if err != nil {
		return nil, NewError(ErrAuthentication, "invalid token", err)
	}

	// 获取声明
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, NewError(ErrAuthentication, "invalid token", errors.New("invalid token claims"))
}
