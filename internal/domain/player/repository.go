package player

import "context"

// PlayerRepository プレイヤーリポジトリインターフェース
type PlayerRepository interface {
	// FindByName 名前でプレイヤーを取得（大文字小文字を区別しない）
	FindByName(ctx context.Context, name string) (*Player, error)

	// Save プレイヤーを保存（存在する場合は名前と最終ログイン日時を更新）
	Save(ctx context.Context, p *Player) error
}
