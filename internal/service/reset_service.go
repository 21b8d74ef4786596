package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"user_admin/internal/mail"
	"user_admin/internal/repository"
	"user_admin/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmailNotFound     = errors.New("no user found with this email")
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	ErrMailDelivery      = errors.New("failed to send reset email")
)

// PasswordResetService issues single-use reset tokens and redeems them
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	userRepo repository.UserRepository
	mailer   mail.Mailer
	baseURL  string
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewPasswordResetService creates a new PasswordResetService. baseURL is the
// front-end origin the reset link points at; tokenTTL bounds the reset window.
func NewPasswordResetService(userRepo repository.UserRepository, mailer mail.Mailer, baseURL string, tokenTTL time.Duration, logger *zap.Logger) PasswordResetService {
	return &passwordResetService{
		userRepo: userRepo,
		mailer:   mailer,
		baseURL:  baseURL,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RequestReset stores a fresh reset token for the account behind email and
// mails out the reset link. A repeated request overwrites the previous token,
// so only the latest one is redeemable. The token is persisted before the
// send; a delivery failure leaves it valid and surfaces as ErrMailDelivery.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return ErrEmailNotFound
	}

	token := uuid.NewString()
	expires := time.Now().Add(s.tokenTTL)

	if err := s.userRepo.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`
        <h1>Password Reset</h1>
        <p>You requested a password reset. Click the link below to create a new password:</p>
        <a href="%s">%s</a>
        <p>This link expires in %d minutes.</p>`, resetURL, resetURL, int(s.tokenTTL.Minutes()))

	if err := s.mailer.Send(ctx, user.Email, "Password Reset", body); err != nil {
		s.logger.Error("reset email delivery failed",
			zap.String("email", user.Email),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}

// ResetPassword redeems a reset token. Unknown and expired tokens are not
// distinguished, both fail with ErrResetTokenInvalid.
func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	redeemed, err := s.userRepo.RedeemResetToken(ctx, token, hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to redeem reset token: %w", err)
	}
	if !redeemed {
		return ErrResetTokenInvalid
	}
	return nil
}
