package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager(
		"test-secret-key",
		1*time.Hour,    // access token expiry
		7*24*time.Hour, // refresh token expiry
	)
}

// 测试创建JWT管理器
func (suite *JWTTestSuite) TestNewJWTManager() {
	manager := NewJWTManager("secret", 1*time.Hour, 24*time.Hour)
	suite.NotNil(manager)
	// 私有字段无法直接访问，通过GetTokenExpiry间接验证
	suite.Equal(1*time.Hour, manager.GetTokenExpiry("access"))
	suite.Equal(24*time.Hour, manager.GetTokenExpiry("refresh"))
}

// 测试生成访问令牌
func (suite *JWTTestSuite) TestGenerateAccessToken() {
	token, err := suite.manager.GenerateAccessToken(123, "0971111111", "session-123")
	suite.NoError(err)
	suite.NotEmpty(token)
}

// 测试生成刷新令牌
func (suite *JWTTestSuite) TestGenerateRefreshToken() {
	token, err := suite.manager.GenerateRefreshToken(456, "session-456")
	suite.NoError(err)
	suite.NotEmpty(token)
}

// 测试验证令牌
func (suite *JWTTestSuite) TestValidateToken() {
	userID := uint(789)
	phone := "0972222222"
	sessionID := "session-789"

	token, _ := suite.manager.GenerateAccessToken(userID, phone, sessionID)

	claims, err := suite.manager.ValidateToken(token)
	suite.NoError(err)
	suite.NotNil(claims)
	suite.Equal(userID, claims.UserID)
	suite.Equal(phone, claims.Phone)
	suite.Equal(sessionID, claims.SessionID)
}

// 测试验证无效令牌
func (suite *JWTTestSuite) TestValidateInvalidToken() {
	// 无效格式的令牌
	claims, err := suite.manager.ValidateToken("invalid.token.format")
	suite.Error(err)
	suite.Nil(claims)

	// 错误的签名
	wrongManager := NewJWTManager("wrong-secret", 1*time.Hour, 24*time.Hour)
	token, _ := wrongManager.GenerateAccessToken(1, "phone", "session")
	claims, err = suite.manager.ValidateToken(token)
	suite.Error(err)
	suite.Nil(claims)
}

// 测试过期令牌
func (suite *JWTTestSuite) TestExpiredToken() {
	// 创建一个立即过期的管理器
	expiredManager := NewJWTManager("test-secret-key", -1*time.Hour, -1*time.Hour)

	token, _ := expiredManager.GenerateAccessToken(111, "0973333333", "session")

	claims, err := suite.manager.ValidateToken(token)
	suite.Error(err)
	suite.Nil(claims)
}

// 测试刷新访问令牌
func (suite *JWTTestSuite) TestRefreshAccessToken() {
	userID := uint(222)
	sessionID := "session-222"
	phone := "0974444444"

	refreshToken, _ := suite.manager.GenerateRefreshToken(userID, sessionID)

	newAccessToken, err := suite.manager.RefreshAccessToken(refreshToken, phone)
	suite.NoError(err)
	suite.NotEmpty(newAccessToken)

	claims, err := suite.manager.ValidateToken(newAccessToken)
	suite.NoError(err)
	suite.Equal(userID, claims.UserID)
	suite.Equal(phone, claims.Phone)
	suite.Equal("access", claims.TokenType)
}

// 测试获取令牌过期时间
func (suite *JWTTestSuite) TestGetTokenExpiry() {
	suite.Equal(1*time.Hour, suite.manager.GetTokenExpiry("access"))
	suite.Equal(7*24*time.Hour, suite.manager.GetTokenExpiry("refresh"))
	// 未知类型默认返回访问令牌过期时间
	suite.Equal(1*time.Hour, suite.manager.GetTokenExpiry("unknown"))
}

// 测试令牌类型
func (suite *JWTTestSuite) TestTokenTypes() {
	userID := uint(333)
	sessionID := "session-333"

	accessToken, _ := suite.manager.GenerateAccessToken(userID, "phone", sessionID)
	accessClaims, _ := suite.manager.ValidateToken(accessToken)
	suite.Equal("access", accessClaims.TokenType)

	refreshToken, _ := suite.manager.GenerateRefreshToken(userID, sessionID)
	refreshClaims, _ := suite.manager.ValidateToken(refreshToken)
	suite.Equal("refresh", refreshClaims.TokenType)
}

// 测试空参数
func (suite *JWTTestSuite) TestEmptyParameters() {
	// 空手机号
	token, err := suite.manager.GenerateAccessToken(1, "", "session")
	suite.NoError(err)
	suite.NotEmpty(token)

	// 空会话ID
	token, err = suite.manager.GenerateAccessToken(1, "phone", "")
	suite.NoError(err)
	suite.NotEmpty(token)
}

// 测试并发生成令牌
func (suite *JWTTestSuite) TestConcurrentTokenGeneration() {
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			phone := fmt.Sprintf("097%07d", id)
			sessionID := fmt.Sprintf("session-%d", id)

			token, err := suite.manager.GenerateAccessToken(uint(id), phone, sessionID)
			suite.NoError(err)
			suite.NotEmpty(token)
			done <- true
		}(i)
	}

	// 等待所有goroutine完成
	for i := 0; i < 10; i++ {
		<-done
	}
}

// 测试无效的刷新令牌
func (suite *JWTTestSuite) TestRefreshWithInvalidToken() {
	// 使用访问令牌尝试刷新
	accessToken, _ := suite.manager.GenerateAccessToken(1, "phone", "session")
	newToken, err := suite.manager.RefreshAccessToken(accessToken, "phone")
	suite.Error(err) // 应该失败，因为不是刷新令牌
	suite.Empty(newToken)

	// 使用无效令牌
	newToken, err = suite.manager.RefreshAccessToken("invalid.token", "phone")
	suite.Error(err)
	suite.Empty(newToken)
}

// 测试令牌的标准声明
func (suite *JWTTestSuite) TestStandardClaims() {
	token, _ := suite.manager.GenerateAccessToken(1, "phone", "session")
	claims, _ := suite.manager.ValidateToken(token)

	// 验证标准声明 - JWT使用Unix时间戳
	suite.NotNil(claims.IssuedAt)
	suite.NotNil(claims.ExpiresAt)
	suite.Equal("table-game", claims.Issuer)

	issuedTime := claims.IssuedAt.Unix()
	expiresTime := claims.ExpiresAt.Unix()
	suite.Greater(expiresTime, issuedTime)
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
