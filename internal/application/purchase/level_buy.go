package purchase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/session"
	"skillcoins/internal/domain/skill"
)

// LevelsPerPage レベル購入画面の1ページに並ぶレベル数
const LevelsPerPage = 24

// LevelBuyOrchestrator トークンでスキルレベルを購入する
type LevelBuyOrchestrator struct {
	ledger         Ledger
	registry       *skill.Registry
	levelRepo      skill.LevelRepository
	tokensPerLevel int64
}

// NewLevelBuyOrchestrator 新しいLevelBuyOrchestratorを作成
func NewLevelBuyOrchestrator(ledger Ledger, registry *skill.Registry, levelRepo skill.LevelRepository, tokensPerLevel int64) *LevelBuyOrchestrator {
	return &LevelBuyOrchestrator{
		ledger:         ledger,
		registry:       registry,
		levelRepo:      levelRepo,
		tokensPerLevel: tokensPerLevel,
	}
}

// Kind 担当するウィザードの種類
func (o *LevelBuyOrchestrator) Kind() session.WizardKind {
	return session.WizardKindLevelBuy
}

// DefaultOrigin スキル選択画面に戻る
func (o *LevelBuyOrchestrator) DefaultOrigin() session.Origin {
	return session.OriginSkillSelect
}

// Open 既定では1レベル分を選択する。target.Levelがあればそのレベルのページを開く
func (o *LevelBuyOrchestrator) Open(ctx context.Context, playerID uuid.UUID, target session.Target) (session.Selection, error) {
	sk, current, max, err := o.progress(ctx, playerID, target.Skill)
	if err != nil {
		return session.Selection{}, err
	}

	sel := session.Selection{
		Skill:        sk.String(),
		CurrentLevel: current,
		MaxLevel:     max,
		UpToLevel:    current + 1,
	}
	if target.Level > 0 {
		sel.Page = (target.Level - 1) / LevelsPerPage
		if target.Level > sel.UpToLevel {
			sel.UpToLevel = target.Level
		}
	}
	return clampLevelSelection(sel), nil
}

// Apply レベル選択画面の操作を適用する
func (o *LevelBuyOrchestrator) Apply(ctx context.Context, playerID uuid.UUID, sel session.Selection, action session.Action) (session.Selection, error) {
	sk, current, max, err := o.progress(ctx, playerID, sel.Skill)
	if err != nil {
		return sel, err
	}
	sel.Skill = sk.String()
	sel.CurrentLevel = current
	sel.MaxLevel = max
	sel = clampLevelSelection(sel)

	switch action.Type {
	case session.ActionIncrement:
		if sel.UpToLevel < max {
			sel.UpToLevel++
		}
	case session.ActionDecrement:
		if sel.UpToLevel > current+1 {
			sel.UpToLevel--
		}
	case session.ActionNextPage:
		if sel.Page < lastLevelPage(max) {
			sel.Page++
		}
	case session.ActionPreviousPage:
		if sel.Page > 0 {
			sel.Page--
		}
	case session.ActionSelectLevel:
		clicked, err := action.IntValue()
		if err != nil {
			return sel, err
		}
		if clicked <= current {
			return sel, fmt.Errorf("%w: level %d is already unlocked", ErrInvalidTarget, clicked)
		}
		if clicked > max {
			return sel, fmt.Errorf("%w: level %d exceeds max level %d", ErrInvalidTarget, clicked, max)
		}
		// 選択範囲内をクリックした場合はそのレベルまでに縮め、範囲外なら広げる
		sel.UpToLevel = clicked
	default:
		return sel, fmt.Errorf("%w: %s", session.ErrInvalidAction, action.Type)
	}
	return clampLevelSelection(sel), nil
}

// Quote 選択範囲のレベル数 × レベル単価
func (o *LevelBuyOrchestrator) Quote(ctx context.Context, playerID uuid.UUID, sel session.Selection) (*Quote, error) {
	_, current, max, err := o.progress(ctx, playerID, sel.Skill)
	if err != nil {
		return nil, err
	}
	if current >= max {
		return nil, fmt.Errorf("%w: %s is at max level %d", ErrAlreadyAtLimit, sel.Skill, max)
	}
	sel.CurrentLevel = current
	sel.MaxLevel = max
	sel = clampLevelSelection(sel)

	return &Quote{
		Currency:    currency.CurrencyTypeTokens,
		Cost:        o.cost(current, sel.UpToLevel),
		Description: fmt.Sprintf("%s %d -> %d", sel.Skill, current, sel.UpToLevel),
	}, nil
}

// Confirm トークンを減算してからスキルレベルを設定する
func (o *LevelBuyOrchestrator) Confirm(ctx context.Context, playerID uuid.UUID, sel session.Selection) (*Result, session.Selection, error) {
	sk, current, max, err := o.progress(ctx, playerID, sel.Skill)
	if err != nil {
		return nil, sel, err
	}
	if current >= max {
		return nil, sel, fmt.Errorf("%w: %s is at max level %d", ErrAlreadyAtLimit, sk, max)
	}
	sel.CurrentLevel = current
	sel.MaxLevel = max
	sel = clampLevelSelection(sel)
	target := sel.UpToLevel
	cost := o.cost(current, target)

	ok, balance, err := o.ledger.TrySubtract(ctx, playerID, currency.CurrencyTypeTokens, cost)
	if err != nil {
		return nil, sel, err
	}
	if !ok {
		return Failed(ReasonInsufficientFunds, currency.CurrencyTypeTokens, balance), sel, nil
	}

	if err := o.levelRepo.SetLevel(ctx, playerID, sk, target); err != nil {
		if refundErr := refund(ctx, o.ledger, playerID, currency.CurrencyTypeTokens, cost); refundErr != nil {
			return nil, sel, fmt.Errorf("%w: failed to set skill level (%v) and to refund tokens: %w", currency.ErrPersistenceFailure, err, refundErr)
		}
		return nil, sel, fmt.Errorf("%w: failed to set skill level: %w", currency.ErrPersistenceFailure, err)
	}

	next := sel
	next.CurrentLevel = target
	next.UpToLevel = target + 1
	next = clampLevelSelection(next)

	effect := fmt.Sprintf("%s %d -> %d", sk, current, target)
	return Succeeded(currency.CurrencyTypeTokens, cost, balance, effect), next, nil
}

func (o *LevelBuyOrchestrator) progress(ctx context.Context, playerID uuid.UUID, skillName string) (skill.Skill, int, int, error) {
	if skillName == "" {
		return "", 0, 0, fmt.Errorf("%w: skill is required", ErrInvalidTarget)
	}
	sk, err := o.registry.Resolve(skillName)
	if err != nil {
		return "", 0, 0, err
	}
	max, err := o.registry.MaxLevel(sk)
	if err != nil {
		return "", 0, 0, err
	}
	current, err := o.levelRepo.Level(ctx, playerID, sk)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: failed to read skill level: %w", currency.ErrPersistenceFailure, err)
	}
	return sk, current, max, nil
}

func (o *LevelBuyOrchestrator) cost(current, target int) decimal.Decimal {
	if target <= current {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(target-current) * o.tokensPerLevel)
}

// clampLevelSelection 選択を [現在+1, 最大] とページ範囲に収める
func clampLevelSelection(sel session.Selection) session.Selection {
	if sel.UpToLevel > sel.MaxLevel {
		sel.UpToLevel = sel.MaxLevel
	}
	if sel.UpToLevel < sel.CurrentLevel+1 && sel.CurrentLevel < sel.MaxLevel {
		sel.UpToLevel = sel.CurrentLevel + 1
	}
	if sel.Page < 0 {
		sel.Page = 0
	}
	if last := lastLevelPage(sel.MaxLevel); sel.Page > last {
		sel.Page = last
	}
	return sel
}

func lastLevelPage(maxLevel int) int {
	if maxLevel <= 0 {
		return 0
	}
	return (maxLevel - 1) / LevelsPerPage
}
