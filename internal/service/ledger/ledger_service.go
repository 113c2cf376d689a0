// Package ledger keeps the chart of accounts and its append-only journal.
// Account balances are never stored; they are summed from the entries.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service"
)

// Line is one side of a journal.
type Line struct {
	Account primitive.ObjectID
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Journal is a balanced set of lines posted together.
type Journal struct {
	Memo      string
	Reference *models.Reference
	Lines     []Line
}

// Service manages accounts and journal postings.
type Service struct {
	store  repository.Store
	logger *zap.Logger
	newID  func() string
}

// NewService wires a new ledger service instance.
func NewService(store repository.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, newID: uuid.NewString}
}

// CreateAccount adds an account to the chart. A child must share its parent's type.
func (s *Service) CreateAccount(ctx context.Context, acc *models.Account) (*models.Account, error) {
	if err := service.Prepare(acc); err != nil {
		return nil, err
	}
	if acc.Parent != nil {
		parent, err := s.store.Accounts().FindByID(ctx, *acc.Parent)
		if err != nil {
			return nil, service.Missing(err, "parent account")
		}
		if parent.Type != acc.Type {
			return nil, models.Validationf("account type %s does not match parent type %s", acc.Type, parent.Type)
		}
	}

	if err := s.store.Accounts().Insert(ctx, acc); err != nil {
		return nil, service.Duplicate(err, fmt.Sprintf("account %q already exists", acc.Name))
	}
	s.logger.Info("account created", zap.String("name", acc.Name), zap.String("type", string(acc.Type)))
	return acc, nil
}

// EnsureAccount returns the account named name under parent, creating it as a
// system account when it does not exist yet.
func (s *Service) EnsureAccount(ctx context.Context, name string, typ models.AccountType, parent *primitive.ObjectID) (*models.Account, error) {
	filter := repository.Filter{"nameKey": models.NameKey(name), "parent": parent}
	existing, err := s.store.Accounts().FindOne(ctx, filter)
	switch {
	case err == nil:
		if existing.Type != typ {
			return nil, models.Validationf("account %q exists with type %s, expected %s", existing.Name, existing.Type, typ)
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("load account %q: %w", name, err)
	}

	acc := &models.Account{Name: name, Type: typ, Parent: parent, System: true}
	return s.CreateAccount(ctx, acc)
}

// Post validates and writes a journal, returning its id.
func (s *Service) Post(ctx context.Context, j Journal) (string, error) {
	if len(j.Lines) < 2 {
		return "", models.Validationf("a journal needs at least two lines")
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range j.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return "", models.Validationf("journal amounts must not be negative")
		}
		if l.Debit.IsPositive() == l.Credit.IsPositive() {
			return "", models.Validationf("each journal line needs exactly one of debit or credit")
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if !debits.Equal(credits) {
		return "", models.Validationf("journal is not balanced: debits %s, credits %s", debits, credits)
	}

	journalID := s.newID()
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		for _, l := range j.Lines {
			if _, err := s.store.Accounts().FindByID(ctx, l.Account); err != nil {
				return service.Missing(err, "account "+l.Account.Hex())
			}
			entry := &models.LedgerEntry{
				JournalID: journalID,
				Account:   l.Account,
				Debit:     l.Debit,
				Credit:    l.Credit,
				Memo:      j.Memo,
				Reference: j.Reference,
			}
			if err := s.store.LedgerEntries().Insert(ctx, entry); err != nil {
				return fmt.Errorf("insert ledger entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug("journal posted", zap.String("journal_id", journalID), zap.String("memo", j.Memo), zap.String("amount", debits.String()))
	return journalID, nil
}

// Balance derives the balance of one account from its entries.
func (s *Service) Balance(ctx context.Context, id primitive.ObjectID) (decimal.Decimal, error) {
	acc, err := s.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

// GetAccount loads an account with its balance.
func (s *Service) GetAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	acc, err := s.store.Accounts().FindByID(ctx, id)
	if err != nil {
		return nil, service.Missing(err, "account")
	}
	accounts := []models.Account{*acc}
	if err := s.withBalances(ctx, accounts); err != nil {
		return nil, err
	}
	return &accounts[0], nil
}

// ListAccounts returns a page of accounts with their balances.
func (s *Service) ListAccounts(ctx context.Context, page models.Page) ([]models.Account, int64, error) {
	accounts, total, err := s.store.Accounts().Find(ctx, nil, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	if err := s.withBalances(ctx, accounts); err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// Entries returns a page of the entries posted to an account, newest first.
func (s *Service) Entries(ctx context.Context, account primitive.ObjectID, page models.Page) ([]models.LedgerEntry, int64, error) {
	if _, err := s.store.Accounts().FindByID(ctx, account); err != nil {
		return nil, 0, service.Missing(err, "account")
	}
	entries, total, err := s.store.LedgerEntries().Find(ctx, repository.Filter{"account": account}, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, total, nil
}

func (s *Service) withBalances(ctx context.Context, accounts []models.Account) error {
	ids := make([]primitive.ObjectID, len(accounts))
	for i := range accounts {
		ids[i] = accounts[i].ID
	}
	totals, err := s.store.Reports().AccountTotals(ctx, ids)
	if err != nil {
		return fmt.Errorf("sum ledger entries: %w", err)
	}
	for i := range accounts {
		accounts[i].Balance = balance(accounts[i].Type, totals[accounts[i].ID])
	}
	return nil
}

func balance(typ models.AccountType, t repository.Totals) decimal.Decimal {
	if typ.DebitNormal() {
		return t.Debit.Sub(t.Credit)
	}
	return t.Credit.Sub(t.Debit)
}
