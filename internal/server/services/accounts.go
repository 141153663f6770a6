package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/dmitrijs2005/uptask/internal/server/auth"
	"github.com/dmitrijs2005/uptask/internal/server/mail"
	"github.com/dmitrijs2005/uptask/internal/server/models"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/repomanager"
)

const (
	// DefaultCodeTTL is how long a mailed confirmation or reset code stays valid.
	DefaultCodeTTL = 10 * time.Minute
	// DefaultCodeCooldown is the minimum gap between two codes for one user.
	DefaultCodeCooldown = 5 * time.Minute

	codeBytes = 16
)

// PasswordHasher hashes passwords and checks a candidate against a stored hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// TokenIssuer mints session token pairs and verifies refresh tokens.
type TokenIssuer interface {
	IssuePair(userID string) (*auth.Pair, error)
	VerifyRefresh(token string) (*auth.Claims, error)
}

// Mailer delivers account emails. Send waits for the outcome, SendAsync
// only logs it.
type Mailer interface {
	Send(ctx context.Context, kind mail.Kind, r mail.Recipient) error
	SendAsync(ctx context.Context, kind mail.Kind, r mail.Recipient)
}

// RegisterInput is a validated sign-up request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AccountService implements the account lifecycle: registration, email
// confirmation, login, session refresh, password recovery and profile
// maintenance.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	mailer      Mailer
	log         logging.Logger

	codeTTL  time.Duration
	cooldown time.Duration
	now      func() time.Time
	newCode  func() (string, error)
}

// NewAccountService returns a service issuing codes valid for DefaultCodeTTL
// with a DefaultCodeCooldown between two codes for the same user.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher,
	tokens TokenIssuer, mailer Mailer, log logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		mailer:      mailer,
		log:         log,
		codeTTL:     DefaultCodeTTL,
		cooldown:    DefaultCodeCooldown,
		now:         time.Now,
		newCode:     func() (string, error) { return common.MakeRandHexString(codeBytes) },
	}
}

// Register creates an unconfirmed account and mails a confirmation code in
// the background.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := common.NormalizeEmail(in.Email)

	if _, err := s.repomanager.Users(s.db).GetByEmail(ctx, email); err == nil {
		return nil, common.ErrEmailTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, internalError(ctx, s.log, "register", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internalError(ctx, s.log, "register", err)
	}

	var (
		user *models.User
		code *models.Token
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			Name:         in.Name,
			Email:        email,
			PasswordHash: hash,
		})
		if err != nil {
			if dbx.IsUniqueViolation(err) {
				return common.ErrEmailTaken
			}
			return err
		}
		code, err = s.issueCode(ctx, tx, user.ID, models.TokenPurposeConfirm)
		return err
	})
	if err != nil {
		return nil, internalError(ctx, s.log, "register", err)
	}

	s.log.Info(ctx, "account created", "user_id", user.ID)
	s.mailer.SendAsync(ctx, mail.KindConfirmation, recipient(user, code))
	return user, nil
}

// ConfirmAccount marks the code's owner as confirmed and consumes the code.
// A code that still exists for an already confirmed user is consumed
// without error.
func (s *AccountService) ConfirmAccount(ctx context.Context, code string) error {
	tok, err := s.repomanager.Tokens(s.db).FindActive(ctx, code, models.TokenPurposeConfirm)
	if err != nil {
		return internalError(ctx, s.log, "confirm account", notFoundAs(err, common.ErrConfirmationTokenInvalid))
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).LockByID(ctx, tok.UserID)
		if err != nil {
			return notFoundAs(err, common.ErrUserNotFound)
		}
		if !user.Confirmed {
			if err := s.repomanager.Users(tx).Confirm(ctx, user.ID); err != nil {
				return err
			}
		}
		if err := s.repomanager.Tokens(tx).DeleteByID(ctx, tok.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return internalError(ctx, s.log, "confirm account", err)
	}
	s.log.Info(ctx, "account confirmed", "user_id", tok.UserID)
	return nil
}

// Login checks credentials and issues a session. Unconfirmed accounts get a
// fresh confirmation code instead, subject to the resend cooldown.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, *auth.Pair, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return nil, nil, internalError(ctx, s.log, "login", notFoundAs(err, common.ErrUserNotFound))
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, nil, internalError(ctx, s.log, "login", err)
	}
	if !ok {
		return nil, nil, common.ErrPasswordIncorrect
	}

	if !user.Confirmed {
		code, err := s.issueWithCooldown(ctx, user.ID, models.TokenPurposeConfirm)
		if err != nil {
			return nil, nil, internalError(ctx, s.log, "login", err)
		}
		s.mailer.SendAsync(ctx, mail.KindConfirmation, recipient(user, code))
		return nil, nil, common.ErrAccountNotConfirmed
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, internalError(ctx, s.log, "login", err)
	}
	return user, pair, nil
}

// RequestConfirmationCode mails a new confirmation code. Unknown and already
// confirmed addresses succeed silently.
func (s *AccountService) RequestConfirmationCode(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	if errors.Is(err, common.ErrorNotFound) {
		s.log.Info(ctx, "confirmation code requested for unknown email")
		return nil
	}
	if err != nil {
		return internalError(ctx, s.log, "request confirmation code", err)
	}
	if user.Confirmed {
		return nil
	}
	return s.mailCode(ctx, user, models.TokenPurposeConfirm, mail.KindConfirmation)
}

// ForgotPassword mails a password reset code. Unknown addresses succeed
// silently.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	if errors.Is(err, common.ErrorNotFound) {
		s.log.Info(ctx, "password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return internalError(ctx, s.log, "forgot password", err)
	}
	return s.mailCode(ctx, user, models.TokenPurposeReset, mail.KindPasswordReset)
}

// ValidateResetToken reports whether code is a live password reset code.
func (s *AccountService) ValidateResetToken(ctx context.Context, code string) error {
	if _, err := s.repomanager.Tokens(s.db).FindActive(ctx, code, models.TokenPurposeReset); err != nil {
		return internalError(ctx, s.log, "validate reset token", notFoundAs(err, common.ErrResetTokenInvalid))
	}
	return nil
}

// UpdatePasswordWithToken sets a new password and consumes every reset code
// of the owner. The code is taken inside the transaction, so of two requests
// racing on the same code only one changes the password.
func (s *AccountService) UpdatePasswordWithToken(ctx context.Context, code, password string) error {
	tok, err := s.repomanager.Tokens(s.db).FindActive(ctx, code, models.TokenPurposeReset)
	if err != nil {
		return internalError(ctx, s.log, "reset password", notFoundAs(err, common.ErrResetTokenInvalid))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return internalError(ctx, s.log, "reset password", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		consumed, err := s.repomanager.Tokens(tx).Consume(ctx, code, models.TokenPurposeReset)
		if err != nil {
			return notFoundAs(err, common.ErrResetTokenInvalid)
		}
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, consumed.UserID, hash); err != nil {
			return notFoundAs(err, common.ErrUserNotFound)
		}
		_, err = s.repomanager.Tokens(tx).DeleteByUserAndPurpose(ctx, consumed.UserID, models.TokenPurposeReset)
		return err
	})
	if err != nil {
		return internalError(ctx, s.log, "reset password", err)
	}
	s.log.Info(ctx, "password reset", "user_id", tok.UserID)
	return nil
}

// Refresh exchanges a refresh token for a new pair. Each refresh token is
// accepted once; a replay fails with TOKEN_REVOKED.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*models.User, *auth.Pair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, nil, common.ErrTokenPayload
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).GetByID(ctx, claims.UserID)
		if err != nil {
			return notFoundAs(err, common.ErrUserNotFound)
		}
		first, err := s.repomanager.RefreshTokens(tx).Revoke(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time)
		if err != nil {
			return err
		}
		if !first {
			s.log.Warn(ctx, "refresh token replayed", "user_id", claims.UserID, "jti", claims.ID)
			return common.ErrTokenRevoked
		}
		return nil
	})
	if err != nil {
		return nil, nil, internalError(ctx, s.log, "refresh session", err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, internalError(ctx, s.log, "refresh session", err)
	}
	return user, pair, nil
}

// GetUser returns the user or ErrUserNotFound.
func (s *AccountService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.log, "get user", notFoundAs(err, common.ErrUserNotFound))
	}
	return user, nil
}

// UpdateProfile changes name and email. The email must not belong to
// another account.
func (s *AccountService) UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error) {
	email = common.NormalizeEmail(email)
	repo := s.repomanager.Users(s.db)

	taken, err := repo.EmailTakenByOther(ctx, email, userID)
	if err != nil {
		return nil, internalError(ctx, s.log, "update profile", err)
	}
	if taken {
		return nil, common.ErrEmailTaken
	}

	if err := repo.UpdateProfile(ctx, userID, name, email); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrEmailTaken
		}
		return nil, internalError(ctx, s.log, "update profile", notFoundAs(err, common.ErrUserNotFound))
	}
	return s.GetUser(ctx, userID)
}

// UpdateCurrentPassword replaces the password of an authenticated user after
// checking the current one.
func (s *AccountService) UpdateCurrentPassword(ctx context.Context, userID, current, password string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Compare(user.PasswordHash, current)
	if err != nil {
		return internalError(ctx, s.log, "update password", err)
	}
	if !ok {
		return common.ErrCurrentPasswordIncorrect
	}
	if current == password {
		return common.ErrPasswordUnchanged
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return internalError(ctx, s.log, "update password", err)
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, userID, hash); err != nil {
		return internalError(ctx, s.log, "update password", notFoundAs(err, common.ErrUserNotFound))
	}
	s.log.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// mailCode issues a code under the cooldown and waits for delivery. A code
// that could not be delivered is withdrawn so the user can retry at once.
func (s *AccountService) mailCode(ctx context.Context, user *models.User, purpose models.TokenPurpose, kind mail.Kind) error {
	code, err := s.issueWithCooldown(ctx, user.ID, purpose)
	if err != nil {
		return internalError(ctx, s.log, "issue code", err)
	}

	if err := s.mailer.Send(ctx, kind, recipient(user, code)); err != nil {
		if derr := s.repomanager.Tokens(s.db).DeleteByID(ctx, code.ID); derr != nil && !errors.Is(derr, common.ErrorNotFound) {
			s.log.Error(ctx, "withdraw undelivered code failed", "user_id", user.ID, "error", derr)
		}
		return internalError(ctx, s.log, "send code", err)
	}
	return nil
}

// issueWithCooldown locks the user row so concurrent requests observe each
// other's codes, then refuses when a code was issued within the cooldown.
func (s *AccountService) issueWithCooldown(ctx context.Context, userID string, purpose models.TokenPurpose) (*models.Token, error) {
	var code *models.Token
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).LockByID(ctx, userID); err != nil {
			return notFoundAs(err, common.ErrUserNotFound)
		}
		recent, err := s.repomanager.Tokens(tx).IssuedSince(ctx, userID, s.now().Add(-s.cooldown))
		if err != nil {
			return err
		}
		if recent {
			return common.ErrCodeRecentlySent
		}
		code, err = s.issueCode(ctx, tx, userID, purpose)
		return err
	})
	if err != nil {
		return nil, err
	}
	return code, nil
}

// issueCode replaces every outstanding code of the user with a new one.
func (s *AccountService) issueCode(ctx context.Context, tx dbx.DBTX, userID string, purpose models.TokenPurpose) (*models.Token, error) {
	repo := s.repomanager.Tokens(tx)
	if _, err := repo.DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}

	value, err := s.newCode()
	if err != nil {
		return nil, err
	}
	return repo.Create(ctx, &models.Token{
		Token:     value,
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.codeTTL),
	})
}

func recipient(u *models.User, code *models.Token) mail.Recipient {
	return mail.Recipient{Email: u.Email, Name: u.Name, Token: code.Token}
}
