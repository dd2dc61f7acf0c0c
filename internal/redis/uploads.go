package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UploadSession is the state of a presigned-URL upload handshake, keyed by
// the opaque token handed to the client. It expires with the presigned URL.
type UploadSession struct {
	UserID      int    `json:"user_id"`
	ObjectKey   string `json:"object_key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	PublicURL   string `json:"public_url"`
}

func uploadSessionKey(token string) string {
	return fmt.Sprintf("upload_session:%s", token)
}

func SaveUploadSession(ctx context.Context, token string, s UploadSession, ttl time.Duration) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return Rdb.Set(ctx, uploadSessionKey(token), body, ttl).Err()
}

// GetUploadSession returns redis.Nil via the error when the token is
// unknown or expired.
func GetUploadSession(ctx context.Context, token string) (*UploadSession, error) {
	body, err := Rdb.Get(ctx, uploadSessionKey(token)).Bytes()
	if err != nil {
		return nil, err
	}
	var s UploadSession
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func DeleteUploadSession(ctx context.Context, token string) error {
	return Rdb.Del(ctx, uploadSessionKey(token)).Err()
}

// ErrNoSession aliases the driver's miss sentinel so callers don't import
// the redis driver directly.
var ErrNoSession = redis.Nil
