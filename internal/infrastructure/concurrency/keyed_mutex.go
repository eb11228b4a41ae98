// Package concurrency はプレイヤー単位の排他制御を提供する。
package concurrency

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// KeyedMutex プレイヤーIDごとの排他ロック
//
// ロックは固定数のシャードに分割される。異なるプレイヤーが同じシャードに
// 割り当てられた場合のみ競合し、全体ロックにはならない。
type KeyedMutex struct {
	shards []sync.Mutex
}

// NewKeyedMutex 新しいKeyedMutexを作成
func NewKeyedMutex(shards int) *KeyedMutex {
	if shards <= 0 {
		shards = 1
	}
	return &KeyedMutex{shards: make([]sync.Mutex, shards)}
}

// Lock プレイヤーのロックを取得し、解放関数を返す
func (m *KeyedMutex) Lock(id uuid.UUID) (unlock func()) {
	mu := m.shard(id)
	mu.Lock()
	return mu.Unlock
}

// ShardIndex プレイヤーが割り当てられるシャード番号
func (m *KeyedMutex) ShardIndex(id uuid.UUID) int {
	h := binary.BigEndian.Uint64(id[8:]) ^ binary.BigEndian.Uint64(id[:8])
	return int(h % uint64(len(m.shards)))
}

func (m *KeyedMutex) shard(id uuid.UUID) *sync.Mutex {
	return &m.shards[m.ShardIndex(id)]
}
