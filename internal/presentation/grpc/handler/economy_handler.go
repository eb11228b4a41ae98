package handler

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	bridgeapp "skillcoins/internal/application/bridge"
	rewardapp "skillcoins/internal/application/reward"
	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/player"
	"skillcoins/internal/domain/skill"
	"skillcoins/internal/presentation/grpc/pb"
)

// BalanceLedger 残高の読み書き
type BalanceLedger interface {
	Balances(ctx context.Context, playerID uuid.UUID) (map[currency.CurrencyType]decimal.Decimal, error)
	SetBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) (decimal.Decimal, error)
}

// RewardService レベルアップ報酬の付与
type RewardService interface {
	OnProgressionEvent(ctx context.Context, req *rewardapp.ProgressionRequest) (*rewardapp.ProgressionResponse, error)
}

// CommandBridge 外部経済コマンドの転送
type CommandBridge interface {
	OnForeignEconomyCommand(ctx context.Context, req *bridgeapp.CommandRequest) (*bridgeapp.CommandResponse, error)
}

// EconomyHandler skillcoins.v1.EconomyServiceの実装
type EconomyHandler struct {
	pb.UnimplementedEconomyServiceServer
	ledger  BalanceLedger
	rewards RewardService
	bridge  CommandBridge
}

// NewEconomyHandler 新しいEconomyHandlerを作成
func NewEconomyHandler(ledger BalanceLedger, rewards RewardService, bridge CommandBridge) *EconomyHandler {
	return &EconomyHandler{
		ledger:  ledger,
		rewards: rewards,
		bridge:  bridge,
	}
}

// GetBalance 残高取得
func (h *EconomyHandler) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	playerID, err := playerIDField(req)
	if err != nil {
		return nil, err
	}

	balances, err := h.ledger.Balances(ctx, playerID)
	if err != nil {
		return nil, toStatus(err)
	}
	return balanceStruct(playerID, balances)
}

// ReportProgression レベルアップを通知し、付与された報酬を返す
func (h *EconomyHandler) ReportProgression(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	playerID, err := playerIDField(req)
	if err != nil {
		return nil, err
	}
	skillName := stringField(req, "skill")
	if skillName == "" {
		return nil, status.Error(codes.InvalidArgument, "skill is required")
	}
	level, ok := intField(req, "level")
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "level is required")
	}

	resp, err := h.rewards.OnProgressionEvent(ctx, &rewardapp.ProgressionRequest{
		PlayerID: playerID,
		Skill:    skillName,
		Level:    level,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"player_id": resp.PlayerID.String(),
		"skill":     resp.Skill,
		"level":     resp.Level,
		"coins":     resp.Coins,
		"tokens":    resp.Tokens,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ForwardCommand 外部経済コマンドを転送する
//
// handledがfalseの場合、ホスト側で元のコマンドを処理する。
func (h *EconomyHandler) ForwardCommand(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	command := stringField(req, "command")
	if command == "" {
		return nil, status.Error(codes.InvalidArgument, "command is required")
	}

	resp, err := h.bridge.OnForeignEconomyCommand(ctx, &bridgeapp.CommandRequest{
		Command: command,
		Issuer:  stringField(req, "issuer"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	fields := map[string]interface{}{
		"handled": resp.Handled,
	}
	if resp.Handled {
		fields["operation"] = string(resp.Operation)
	}
	if resp.PlayerID != uuid.Nil {
		fields["player_id"] = resp.PlayerID.String()
		fields["new_balance"] = resp.NewBalance.String()
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// AdminHandler skillcoins.v1.AdminServiceの実装
type AdminHandler struct {
	ledger BalanceLedger
}

// NewAdminHandler 新しいAdminHandlerを作成
func NewAdminHandler(ledger BalanceLedger) *AdminHandler {
	return &AdminHandler{ledger: ledger}
}

// SetBalance 残高を指定値に設定する
func (h *AdminHandler) SetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	playerID, err := playerIDField(req)
	if err != nil {
		return nil, err
	}
	currencyType, err := currency.NewCurrencyType(stringField(req, "currency"))
	if err != nil {
		return nil, toStatus(err)
	}
	amount, err := decimal.NewFromString(stringField(req, "amount"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "amount must be a decimal string")
	}

	newBalance, err := h.ledger.SetBalance(ctx, playerID, currencyType, amount)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"player_id": playerID.String(),
		"currency":  string(currencyType),
		"balance":   newBalance.String(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func balanceStruct(playerID uuid.UUID, balances map[currency.CurrencyType]decimal.Decimal) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]interface{}{
		"player_id": playerID.String(),
		"coins":     balances[currency.CurrencyTypeCoins].String(),
		"tokens":    balances[currency.CurrencyTypeTokens].String(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func playerIDField(req *structpb.Struct) (uuid.UUID, error) {
	raw := stringField(req, "player_id")
	if raw == "" {
		return uuid.Nil, status.Error(codes.InvalidArgument, "player_id is required")
	}
	id, err := player.ParseID(raw)
	if err != nil {
		return uuid.Nil, toStatus(err)
	}
	return id, nil
}

func stringField(req *structpb.Struct, key string) string {
	v, ok := req.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// intField 数値フィールドを整数として読む。小数は受け付けない
func intField(req *structpb.Struct, key string) (int, bool) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber || n.NumberValue != float64(int(n.NumberValue)) {
		return 0, false
	}
	return int(n.NumberValue), true
}

// toStatus エラーをgRPCステータスコードに変換
func toStatus(err error) error {
	switch {
	case errors.Is(err, currency.ErrInsufficientFunds):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, currency.ErrInvalidAmount),
		errors.Is(err, currency.ErrInvalidCurrencyType),
		errors.Is(err, player.ErrInvalidPlayerID),
		errors.Is(err, skill.ErrInvalidLevel),
		errors.Is(err, skill.ErrUnknownSkill),
		errors.Is(err, bridgeapp.ErrInvalidAmount):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, player.ErrPlayerNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, currency.ErrPersistenceFailure):
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, "internal server error")
}
