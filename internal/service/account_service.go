package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
)

// AccountService handles account-related business logic operations.
type AccountService struct {
	accountRepo        *repository.AccountRepository
	brokerageFeeRate   float64
	transactionTaxRate float64
}

// NewAccountService creates a new AccountService. The rates are the defaults
// (percent) given to accounts created without explicit rates.
func NewAccountService(
	accountRepo *repository.AccountRepository,
	brokerageFeeRate, transactionTaxRate float64,
) *AccountService {
	return &AccountService{
		accountRepo:        accountRepo,
		brokerageFeeRate:   brokerageFeeRate,
		transactionTaxRate: transactionTaxRate,
	}
}

// GetAccounts retrieves all accounts.
func (s *AccountService) GetAccounts(ctx context.Context) ([]model.Account, error) {
	return s.accountRepo.GetAccounts(ctx)
}

// GetAccount retrieves a single account by ID.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	return s.accountRepo.GetAccount(ctx, accountID)
}

// CreateAccount creates an account, filling omitted rates from the defaults.
func (s *AccountService) CreateAccount(ctx context.Context, req request.CreateAccountRequest) (*model.Account, error) {
	account := &model.Account{
		ID:                 uuid.New().String(),
		Name:               strings.TrimSpace(req.Name),
		BrokerageFeeRate:   s.brokerageFeeRate,
		TransactionTaxRate: s.transactionTaxRate,
		CreatedAt:          time.Now().UTC(),
	}
	if req.BrokerageFeeRate != nil {
		account.BrokerageFeeRate = *req.BrokerageFeeRate
	}
	if req.TransactionTaxRate != nil {
		account.TransactionTaxRate = *req.TransactionTaxRate
	}

	if err := s.accountRepo.InsertAccount(ctx, *account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// DeleteAccount removes an account with all of its holdings.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID string) error {
	return s.accountRepo.DeleteAccount(ctx, accountID)
}
