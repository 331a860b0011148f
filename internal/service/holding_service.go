package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/provider"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rights"
)

// HoldingService handles holding-related business logic operations.
// Holdings are always returned with their distribution events attached.
type HoldingService struct {
	db           *sql.DB
	holdingRepo  *repository.HoldingRepository
	eventRepo    *repository.DistributionEventRepository
	accountRepo  *repository.AccountRepository
	prices       provider.PriceProvider
	priceTimeout time.Duration
	log          zerolog.Logger
}

// NewHoldingService creates a new HoldingService with the provided repository dependencies.
// prices may be nil when price refresh is not needed.
func NewHoldingService(
	db *sql.DB,
	holdingRepo *repository.HoldingRepository,
	eventRepo *repository.DistributionEventRepository,
	accountRepo *repository.AccountRepository,
	prices provider.PriceProvider,
	priceTimeout time.Duration,
	log zerolog.Logger,
) *HoldingService {
	return &HoldingService{
		db:           db,
		holdingRepo:  holdingRepo,
		eventRepo:    eventRepo,
		accountRepo:  accountRepo,
		prices:       prices,
		priceTimeout: priceTimeout,
		log:          log.With().Str("component", "holding_service").Logger(),
	}
}

// GetHoldings retrieves the holdings of an account, or of every account when
// accountID is empty. Returns apperrors.ErrAccountNotFound for an unknown account.
func (s *HoldingService) GetHoldings(ctx context.Context, accountID string) ([]model.Holding, error) {
	if accountID != "" {
		if _, err := s.accountRepo.GetAccount(ctx, accountID); err != nil {
			return nil, err
		}
	}

	holdings, err := s.holdingRepo.GetHoldings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.attachEvents(ctx, holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

// GetHolding retrieves a single holding with its events.
func (s *HoldingService) GetHolding(ctx context.Context, holdingID string) (model.Holding, error) {
	holding, err := s.holdingRepo.GetHolding(ctx, holdingID)
	if err != nil {
		return model.Holding{}, err
	}

	holdings := []model.Holding{holding}
	if err := s.attachEvents(ctx, holdings); err != nil {
		return model.Holding{}, err
	}
	return holdings[0], nil
}

// attachEvents loads the events of all holdings in one query.
func (s *HoldingService) attachEvents(ctx context.Context, holdings []model.Holding) error {
	if len(holdings) == 0 {
		return nil
	}
	ids := make([]string, len(holdings))
	for i, h := range holdings {
		ids[i] = h.ID
	}

	eventsByHolding, err := s.eventRepo.GetEventsByHoldingIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range holdings {
		if events, ok := eventsByHolding[holdings[i].ID]; ok {
			holdings[i].DividendRecords = events
		}
	}
	return nil
}

// CreateHolding records a new purchase lot.
//
// The symbol is upper-cased. When the request carries no tax rate override,
// instruments whose default rate differs from the regular stock rate (bond
// ETFs) get that default stored as their override.
func (s *HoldingService) CreateHolding(ctx context.Context, req request.CreateHoldingRequest) (*model.Holding, error) {
	if _, err := s.accountRepo.GetAccount(ctx, req.AccountID); err != nil {
		return nil, err
	}

	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidDate, req.PurchaseDate)
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	name := strings.TrimSpace(req.Name)

	taxRate := req.TransactionTaxRate
	if taxRate == nil {
		if rate := rights.DefaultTaxRate(symbol, name); rate != rights.DefaultTransactionTaxRate {
			taxRate = &rate
		}
	}

	holding := &model.Holding{
		ID:                 uuid.New().String(),
		AccountID:          req.AccountID,
		Symbol:             symbol,
		Name:               name,
		Shares:             req.Shares,
		OriginalShares:     req.Shares,
		CostPrice:          req.CostPrice,
		PurchaseDate:       purchaseDate.UTC(),
		TransactionTaxRate: taxRate,
		DividendRecords:    []model.DistributionEvent{},
		CreatedAt:          time.Now().UTC(),
	}

	if err := s.holdingRepo.InsertHolding(ctx, *holding); err != nil {
		return nil, fmt.Errorf("failed to create holding: %w", err)
	}

	s.log.Info().Str("holding_id", holding.ID).Str("symbol", symbol).Int64("shares", holding.Shares).Msg("Created holding")
	return holding, nil
}

// DeleteHolding removes a holding and its events.
func (s *HoldingService) DeleteHolding(ctx context.Context, holdingID string) error {
	return s.holdingRepo.DeleteHolding(ctx, holdingID)
}

// SaveRights persists the result of a processing run: the holding's derived
// fields and its complete event list, in one transaction.
func (s *HoldingService) SaveRights(ctx context.Context, holding model.Holding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.holdingRepo.WithTx(tx).UpdateRights(ctx, holding); err != nil {
		return err
	}
	if err := s.eventRepo.WithTx(tx).ReplaceEvents(ctx, holding.ID, holding.DividendRecords); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RefreshPrice fetches the current market price of a holding and stores it.
//
// Returns:
//   - apperrors.ErrHoldingNotFound for an unknown holding
//   - apperrors.ErrSymbolNotFound when no provider knows the symbol
//   - apperrors.ErrProviderUnavailable when every provider failed
func (s *HoldingService) RefreshPrice(ctx context.Context, holdingID string) (model.PriceUpdateResponse, error) {
	holding, err := s.holdingRepo.GetHolding(ctx, holdingID)
	if err != nil {
		return model.PriceUpdateResponse{}, err
	}
	if s.prices == nil {
		return model.PriceUpdateResponse{}, apperrors.ErrProviderUnavailable
	}

	fetchCtx := ctx
	if s.priceTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.priceTimeout)
		defer cancel()
	}

	price, err := s.prices.FetchCurrentPrice(fetchCtx, holding.Symbol)
	if err != nil {
		return model.PriceUpdateResponse{}, err
	}
	if price == nil || price.Price <= 0 {
		return model.PriceUpdateResponse{}, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, holding.Symbol)
	}
	if price.Timestamp.IsZero() {
		price.Timestamp = time.Now().UTC()
	}

	if err := s.holdingRepo.UpdatePrice(ctx, holding.ID, *price); err != nil {
		return model.PriceUpdateResponse{}, err
	}

	s.log.Debug().Str("holding_id", holding.ID).Str("symbol", holding.Symbol).Float64("price", price.Price).Str("source", price.Source).Msg("Updated price")

	return model.PriceUpdateResponse{
		HoldingID: holding.ID,
		Symbol:    holding.Symbol,
		Price:     price.Price,
		Source:    price.Source,
	}, nil
}
