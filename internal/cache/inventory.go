package cache

import (
	"fmt"
	"time"
)

const (
	CommunityKeyPrefix     = "community:%d"
	CommunityNameKeyPrefix = "community:name:%s"
	IdempotencyKeyPrefix   = "idem:%s:%d:%s"
	RevokedTokenKeyPrefix  = "revoked:%s"
)

const (
	CommunityTTL = 10 * time.Minute
)

func CommunityKey(id uint) string {
	return fmt.Sprintf(CommunityKeyPrefix, id)
}

func CommunityNameKey(name string) string {
	return fmt.Sprintf(CommunityNameKeyPrefix, name)
}

func IdempotencyKey(scope string, userID uint, key string) string {
	return fmt.Sprintf(IdempotencyKeyPrefix, scope, userID, key)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyPrefix, jti)
}
