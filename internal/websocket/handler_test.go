package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/table-game/internal/config"
	"github.com/wfunc/table-game/internal/game"
	"github.com/wfunc/table-game/internal/models"
	"github.com/wfunc/table-game/internal/repository"
	"github.com/wfunc/table-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HandlerTestSuite 消息路由测试套件
type HandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	hub     *Hub
	handler *Handler
	jwt     *utils.JWTManager
	users   repository.UserRepository
	ctx     context.Context
}

func (suite *HandlerTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.users = repository.NewUserRepository(suite.db)
	rooms := repository.NewRoomRepository(suite.db)
	history := repository.NewHistoryRepository(suite.db)
	suite.ctx = context.Background()

	cfg := &config.GameConfig{
		HouseCutBps:        1500,
		ForfeitHouseBps:    500,
		ForfeitOpponentBps: 1500,
		TurnTimeout:        20 * time.Second,
		TickInterval:       time.Second,
		GracePeriod:        30 * time.Second,
		FinishDelay:        10 * time.Second,
		MinStake:           1,
		MaxStake:           100000,
	}
	coordinator := game.NewCoordinator(cfg, suite.users, rooms, history)

	suite.hub = NewHub(zap.NewNop())
	go suite.hub.Run()
	coordinator.SetBroadcaster(suite.hub)

	suite.jwt = utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	suite.handler = NewHandler(suite.hub, coordinator, suite.jwt, suite.users)
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.hub.Stop()
	repository.CleanupTestDB(suite.db)
}

// newTestClient 不带真实连接的客户端，消息落在Send通道里
func (suite *HandlerTestSuite) newTestClient() *Client {
	client := &Client{
		ID:   "test-" + time.Now().Format("150405.000000"),
		Hub:  suite.hub,
		Send: make(chan []byte, 64),
	}
	suite.hub.Register(client)
	time.Sleep(10 * time.Millisecond) // 等注册完成
	return client
}

// frame 构造一帧入站消息
func frame(msgType string, payload interface{}) []byte {
	data, _ := json.Marshal(payload)
	raw, _ := json.Marshal(&Message{Type: msgType, Data: data})
	return raw
}

// nextMessage 读取客户端收到的下一条消息
func (suite *HandlerTestSuite) nextMessage(client *Client) *Message {
	select {
	case raw := <-client.Send:
		var msg Message
		suite.Require().NoError(json.Unmarshal(raw, &msg))
		return &msg
	case <-time.After(time.Second):
		suite.FailNow("等待消息超时")
		return nil
	}
}

// createUserWithToken 创建用户并签发访问令牌
func (suite *HandlerTestSuite) createUserWithToken(phone string, balance int64) (*models.User, string) {
	user := &models.User{Phone: phone, Password: "x", Balance: balance, Status: "active"}
	suite.Require().NoError(suite.users.Create(suite.ctx, user))
	token, err := suite.jwt.GenerateAccessToken(user.ID, user.Phone, "session")
	suite.Require().NoError(err)
	return user, token
}

// TestAuthenticateFirstFrame 测试认证成功
func (suite *HandlerTestSuite) TestAuthenticateFirstFrame() {
	user, token := suite.createUserWithToken("0971111111", 1000)
	client := suite.newTestClient()

	suite.handler.HandleClientMessage(client, frame(MessageTypeAuthenticate, &AuthenticatePayload{Token: token}))

	msg := suite.nextMessage(client)
	suite.Equal(MessageTypeAuthenticated, msg.Type)
	suite.True(client.Authenticated)
	suite.Equal(user.ID, client.UserID)
	suite.True(suite.hub.IsUserOnline(user.ID))
}

// TestRejectUnauthenticatedFrame 测试未认证连接的其他帧被拒绝
func (suite *HandlerTestSuite) TestRejectUnauthenticatedFrame() {
	client := suite.newTestClient()

	suite.handler.HandleClientMessage(client, frame(MessageTypeJoinRoom, &JoinRoomPayload{GameType: "njuga", Stake: 100}))

	msg := suite.nextMessage(client)
	suite.Equal(MessageTypeError, msg.Type)
	suite.False(client.Authenticated)
}

// TestRejectBadToken 测试无效令牌
func (suite *HandlerTestSuite) TestRejectBadToken() {
	client := suite.newTestClient()

	suite.handler.HandleClientMessage(client, frame(MessageTypeAuthenticate, &AuthenticatePayload{Token: "garbage"}))

	msg := suite.nextMessage(client)
	suite.Equal(MessageTypeError, msg.Type)
	suite.False(client.Authenticated)
}

// TestJoinRoomFlow 测试认证后加入房间
func (suite *HandlerTestSuite) TestJoinRoomFlow() {
	user, token := suite.createUserWithToken("0971111111", 1000)
	client := suite.newTestClient()

	suite.handler.HandleClientMessage(client, frame(MessageTypeAuthenticate, &AuthenticatePayload{Token: token}))
	suite.nextMessage(client) // authenticated

	suite.handler.HandleClientMessage(client, frame(MessageTypeJoinRoom, &JoinRoomPayload{GameType: models.GameTypeNjuga, Stake: 500}))

	// roomUpdate（广播）和roomJoined都会到达
	sawJoined := false
	for i := 0; i < 2; i++ {
		msg := suite.nextMessage(client)
		if msg.Type == MessageTypeRoomJoined {
			sawJoined = true
		}
	}
	suite.True(sawJoined)

	found, err := suite.users.FindByID(suite.ctx, user.ID)
	suite.NoError(err)
	suite.Equal(int64(500), found.Balance)
}

// TestJoinInsufficientBalance 测试余额不足返回错误帧
func (suite *HandlerTestSuite) TestJoinInsufficientBalance() {
	_, token := suite.createUserWithToken("0971111111", 100)
	client := suite.newTestClient()

	suite.handler.HandleClientMessage(client, frame(MessageTypeAuthenticate, &AuthenticatePayload{Token: token}))
	suite.nextMessage(client)

	suite.handler.HandleClientMessage(client, frame(MessageTypeJoinRoom, &JoinRoomPayload{GameType: models.GameTypeNjuga, Stake: 500}))

	msg := suite.nextMessage(client)
	suite.Equal(MessageTypeError, msg.Type)

	var payload ErrorPayload
	suite.NoError(json.Unmarshal(msg.Data, &payload))
	suite.Equal(2002, payload.Code)
}

// TestPingPong 测试心跳帧不需要认证
func (suite *HandlerTestSuite) TestPingPong() {
	client := suite.newTestClient()

	suite.handler.HandleClientMessage(client, frame(MessageTypePing, nil))

	msg := suite.nextMessage(client)
	suite.Equal(MessageTypePong, msg.Type)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
