package hashid

import (
	"fmt"
	"strings"

	hashids "github.com/speps/go-hashids/v2"
)

// Type 一类对外ID的编码配置，前缀区分资源类型
type Type struct {
	prefix string
	hasher *hashids.HashID
}

func NewType(prefix, salt string, minLength int) *Type {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength

	hasher, err := hashids.NewWithData(data)
	if err != nil {
		panic(err)
	}

	return &Type{prefix: prefix, hasher: hasher}
}

// Encode 数据库ID编码为带前缀的对外ID
func Encode(t *Type, id uint) string {
	encoded, err := t.hasher.EncodeInt64([]int64{int64(id)})
	if err != nil {
		return ""
	}
	return t.prefix + encoded
}

// Decode 对外ID解码回数据库ID
func Decode(t *Type, hashID string) (uint, error) {
	if !strings.HasPrefix(hashID, t.prefix) {
		return 0, fmt.Errorf("invalid hash id prefix: %s", hashID)
	}

	numbers, err := t.hasher.DecodeInt64WithError(strings.TrimPrefix(hashID, t.prefix))
	if err != nil {
		return 0, err
	}
	if len(numbers) != 1 || numbers[0] < 0 {
		return 0, fmt.Errorf("invalid hash id: %s", hashID)
	}
	return uint(numbers[0]), nil
}
