package service

import (
	"context"
	"fmt"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rights"
)

// GainLossService evaluates holdings against their account's fee and tax rates.
type GainLossService struct {
	holdingService *HoldingService
	accountRepo    *repository.AccountRepository
}

// NewGainLossService creates a new GainLossService.
func NewGainLossService(holdingService *HoldingService, accountRepo *repository.AccountRepository) *GainLossService {
	return &GainLossService{
		holdingService: holdingService,
		accountRepo:    accountRepo,
	}
}

// ParseMode converts a query value to a mode. An empty value selects
// including_rights; unknown values return apperrors.ErrInvalidMode.
func ParseMode(value string) (model.GainLossMode, error) {
	if value == "" {
		return model.ModeIncludingRights, nil
	}
	mode := model.GainLossMode(value)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %s", apperrors.ErrInvalidMode, value)
	}
	return mode, nil
}

// Evaluate computes the itemised gain/loss of a holding at its stored current price.
func (s *GainLossService) Evaluate(ctx context.Context, holdingID string, mode model.GainLossMode) (model.GainLoss, error) {
	if !mode.Valid() {
		return model.GainLoss{}, fmt.Errorf("%w: %s", apperrors.ErrInvalidMode, mode)
	}

	holding, err := s.holdingService.GetHolding(ctx, holdingID)
	if err != nil {
		return model.GainLoss{}, err
	}
	account, err := s.accountRepo.GetAccount(ctx, holding.AccountID)
	if err != nil {
		return model.GainLoss{}, err
	}

	return rights.EvaluateBreakdown(holding, mode, account.BrokerageFeeRate, account.TransactionTaxRate), nil
}
