package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fakeCmdable 使うコマンドだけをメモリ上で再現する
//
// 埋め込んだCmdableはnilなので、想定外のコマンドを呼ぶとpanicする。
type fakeCmdable struct {
	goredis.Cmdable
	values     map[string]string
	ttls       map[string]time.Duration
	published  map[string][]string
	publishErr error
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{
		values:    make(map[string]string),
		ttls:      make(map[string]time.Duration),
		published: make(map[string][]string),
	}
}

func (f *fakeCmdable) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	default:
		return goredis.NewStatusResult("", errors.New("unsupported value type"))
	}
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) GetDel(ctx context.Context, key string) *goredis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	delete(f.values, key)
	return goredis.NewStringResult(v, nil)
}

func (f *fakeCmdable) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	if f.publishErr != nil {
		return goredis.NewIntResult(0, f.publishErr)
	}
	f.published[channel] = append(f.published[channel], string(message.([]byte)))
	return goredis.NewIntResult(1, nil)
}
