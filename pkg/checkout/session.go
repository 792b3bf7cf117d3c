package checkout

import (
	"context"
	"encoding/json"
	"time"

	goerrors "errors"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "aira-pay:checkout:"

// SessionContext 单次结账会话的待处理表单数据。
// 替代宿主平台session里的散乱键值，生命周期显式可控：
// 支付发起前写入，到达结账完成页时整体清除。
type SessionContext struct {
	SessionID      string    `json:"session_id"`
	CustomerID     string    `json:"customer_id,omitempty"`
	SelectedMethod string    `json:"selected_method,omitempty"` // 支付方式编码
	SelectedToken  string    `json:"selected_token,omitempty"`  // 选中的已存token（hashid）
	IBAN           string    `json:"iban,omitempty"`
	DOB            string    `json:"dob,omitempty"` // 出生日期，担保支付需要
	WalletToken    string    `json:"wallet_token,omitempty"`
	PanHash        string    `json:"pan_hash,omitempty"`
	UniqueID       string    `json:"unique_id,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SessionStore redis承载的结账会话上下文存储
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Load 读取会话上下文，不存在返回空上下文而非错误
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*SessionContext, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if goerrors.Is(err, redis.Nil) {
		return &SessionContext{SessionID: sessionID}, nil
	}
	if err != nil {
		return nil, err
	}

	var sc SessionContext
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Save 写入会话上下文并续期TTL
func (s *SessionStore) Save(ctx context.Context, sc *SessionContext) error {
	sc.UpdatedAt = time.Now()
	data, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+sc.SessionID, data, s.ttl).Err()
}

// Clear 结账完成时整体删除会话上下文
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
