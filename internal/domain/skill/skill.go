package skill

import (
	"fmt"
	"sort"
	"strings"
)

// StartLevel 未記録のスキルの開始レベル
const StartLevel = 1

// Skill スキルIDを表す値オブジェクト
type Skill string

// DefaultSkills 標準で登録されるスキル
var DefaultSkills = []Skill{
	"farming", "foraging", "mining", "fishing", "excavation",
	"archery", "defense", "fighting", "endurance", "agility",
	"alchemy", "enchanting", "sorcery", "healing", "forging",
}

// String 文字列表現を返す
func (s Skill) String() string {
	return string(s)
}

// Normalize 比較用にスキルIDを正規化する（"auraskills/mining" のような名前空間も除去）
func Normalize(s string) Skill {
	s = strings.ToLower(strings.TrimSpace(s))
	if idx := strings.LastIndexAny(s, "/:"); idx != -1 {
		s = s[idx+1:]
	}
	return Skill(s)
}

// Registry スキルと最大レベルの一覧
type Registry struct {
	maxLevels map[Skill]int
}

// NewRegistry 新しいRegistryを作成
func NewRegistry(skills []Skill, defaultMaxLevel int, overrides map[Skill]int) (*Registry, error) {
	if defaultMaxLevel <= 0 {
		return nil, fmt.Errorf("%w: default max level %d", ErrInvalidLevel, defaultMaxLevel)
	}
	r := &Registry{maxLevels: make(map[Skill]int, len(skills))}
	for _, s := range skills {
		r.maxLevels[Normalize(string(s))] = defaultMaxLevel
	}
	for s, max := range overrides {
		if max <= 0 {
			return nil, fmt.Errorf("%w: max level %d for %s", ErrInvalidLevel, max, s)
		}
		r.maxLevels[Normalize(string(s))] = max
	}
	return r, nil
}

// Resolve スキルIDを検証して正規化済みのSkillを返す
func (r *Registry) Resolve(s string) (Skill, error) {
	sk := Normalize(s)
	if _, ok := r.maxLevels[sk]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSkill, s)
	}
	return sk, nil
}

// MaxLevel スキルの最大レベルを返す
func (r *Registry) MaxLevel(s Skill) (int, error) {
	max, ok := r.maxLevels[s]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSkill, s)
	}
	return max, nil
}

// Skills 登録されているスキルを名前順で返す
func (r *Registry) Skills() []Skill {
	out := make([]Skill, 0, len(r.maxLevels))
	for s := range r.maxLevels {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
