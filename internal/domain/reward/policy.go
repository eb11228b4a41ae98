// Package reward はスキルのレベルアップ時に付与するコイン・トークンの報酬表を定義する。
//
// 報酬表は純粋関数で、状態を持たない。コインは5レベルごと、トークンは10レベルごとに付与される。
package reward

// Milestone あるレベル到達時の報酬
type Milestone struct {
	Level  int
	Coins  int64
	Tokens int64
}

// IsZero 報酬が無いかどうかを返す
func (m Milestone) IsZero() bool {
	return m.Coins == 0 && m.Tokens == 0
}

// MilestoneFor レベル到達時の報酬を返す
func MilestoneFor(level int) Milestone {
	return Milestone{
		Level:  level,
		Coins:  CoinsRewardFor(level),
		Tokens: TokenRewardFor(level),
	}
}

// TokenRewardFor トークン報酬を返す（10の倍数のレベルのみ）
func TokenRewardFor(level int) int64 {
	if level <= 0 || level > 100 || level%10 != 0 {
		return 0
	}

	switch {
	case level == 100:
		return 7
	case level >= 90:
		return 5
	case level >= 70:
		return 4
	case level >= 50:
		return 3
	case level >= 30:
		return 2
	default:
		return 1
	}
}

// CoinsRewardFor コイン報酬を返す（5の倍数のレベルのみ）
func CoinsRewardFor(level int) int64 {
	if level <= 0 || level%5 != 0 {
		return 0
	}

	l := int64(level)
	switch {
	case l <= 10:
		return 10 + (l/5)*5
	case l <= 25:
		return 25 + ((l-10)/5)*5
	case l <= 50:
		return 40 + ((l-25)/5)*10
	case l <= 75:
		return 90 + ((l-50)/5)*20
	case l <= 90:
		return 190 + ((l-75)/5)*30
	default:
		return 280 + ((l-90)/5)*40
	}
}
