// Package account covers signup, password recovery, account details and the
// admin stock update.
package account

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/logger"
)

type AccountAPI interface {
	CreateAccount(ctx context.Context, in domain.NewAccount) (domain.Account, error)
	ForgotPassword(ctx context.Context, email, firstName, lastName string) (string, error)
	ResetPassword(ctx context.Context, id, email, password string) (domain.Account, error)
	Account(ctx context.Context, s domain.Session) (domain.AccountDetails, error)
	UpdateStock(ctx context.Context, s domain.Session, u domain.StockUpdate) (domain.StockLevel, error)
}

// SessionRunner runs fn with a valid session, refreshing it when needed.
type SessionRunner interface {
	WithSession(ctx context.Context, fn func(context.Context, domain.Session) error) error
}

// ListingInvalidator drops cached catalog listings.
type ListingInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	api      AccountAPI
	listings ListingInvalidator
	log      *zap.Logger
}

func NewService(a AccountAPI, listings ListingInvalidator, log *zap.Logger) *Service {
	return &Service{api: a, listings: listings, log: log}
}

// Signup validates the form and creates the account. Invalid forms never reach the API.
func (s *Service) Signup(ctx context.Context, f SignupForm) (domain.Account, error) {
	if err := f.Validate(); err != nil {
		return domain.Account{}, err
	}
	return s.api.CreateAccount(ctx, domain.NewAccount{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     f.Email,
		Password:  f.Password,
	})
}

// ForgotPassword returns the reset id when the identity matches an account.
func (s *Service) ForgotPassword(ctx context.Context, f ForgotPasswordForm) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	return s.api.ForgotPassword(ctx, f.Email, strings.TrimSpace(f.FirstName), strings.TrimSpace(f.LastName))
}

func (s *Service) ResetPassword(ctx context.Context, f ResetPasswordForm) (domain.Account, error) {
	if err := f.Validate(); err != nil {
		return domain.Account{}, err
	}
	return s.api.ResetPassword(ctx, f.ID, f.Email, f.Password)
}

// Details loads the profile and order history of the signed-in account.
func (s *Service) Details(ctx context.Context, sessions SessionRunner) (domain.AccountDetails, error) {
	var details domain.AccountDetails
	err := sessions.WithSession(ctx, func(ctx context.Context, sess domain.Session) error {
		var err error
		details, err = s.api.Account(ctx, sess)
		return err
	})
	return details, err
}

// UpdateStock sets the stock of a product. Authorization is enforced by the API.
func (s *Service) UpdateStock(ctx context.Context, sessions SessionRunner, productID string, stock int) (domain.StockLevel, error) {
	if stock < 0 {
		return domain.StockLevel{}, &ValidationError{Fields: map[string]string{"stock": "Stock cannot be negative"}}
	}

	var level domain.StockLevel
	err := sessions.WithSession(ctx, func(ctx context.Context, sess domain.Session) error {
		var err error
		level, err = s.api.UpdateStock(ctx, sess, domain.StockUpdate{ProductID: productID, NewStock: stock})
		return err
	})
	if err != nil {
		return domain.StockLevel{}, fmt.Errorf("update stock of %s: %w", productID, err)
	}

	if s.listings != nil {
		if err := s.listings.Invalidate(ctx); err != nil {
			logger.WithContext(ctx, s.log).Warn("product listing invalidation failed", zap.Error(err))
		}
	}
	return level, nil
}
