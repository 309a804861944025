package feed

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"postfeed/auth"
	"postfeed/domain"
)

const bcryptCost = 12

// CreateAccount registers a new account and returns its id. Emails are
// unique and case-normalized; duplicates fail with ErrEmailTaken.
func (s *Store) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = clean(displayName)

	err := checkFields(map[string]error{
		"email":    validation.Validate(email, validation.Required, is.Email),
		"password": validation.Validate(password, validation.Required, validation.Length(5, 0)),
		"name":     validation.Validate(displayName, validation.Required),
	})
	if err != nil {
		return "", err
	}

	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(id) FROM accounts WHERE email = ?", email)
	if err := row.Scan(&count); err != nil {
		return "", domain.Storage("account lookup", err)
	}
	if count != 0 {
		return "", domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", domain.Storage("password hash", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO accounts (id, email, password_hash, display_name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, email, string(hash), displayName, domain.DefaultStatus, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return "", domain.ErrEmailTaken
		}
		return "", domain.Storage("account insert", err)
	}

	return id, nil
}

// accountByEmail loads the full account record for a normalized email.
// Callers translate sql.ErrNoRows themselves.
func (s *Store) accountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	acct := domain.Account{}
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, display_name, status, created_at, updated_at FROM accounts WHERE email = ?",
		email)
	err := row.Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.DisplayName,
		&acct.Status, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// VerifyCredentials checks an email/password pair against the stored
// credential and returns the matching account id. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Store) VerifyCredentials(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acct, err := s.accountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrUnauthenticated
		}
		return "", domain.Storage("credential lookup", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrUnauthenticated
	}

	return acct.ID, nil
}

// GetStatus returns the caller's presence message.
func (s *Store) GetStatus(ctx context.Context, identity auth.Result) (string, error) {
	if !identity.Authenticated {
		return "", domain.ErrUnauthenticated
	}

	var status string
	row := s.db.QueryRowContext(ctx, "SELECT status FROM accounts WHERE id = ?", identity.AccountID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", domain.Storage("status lookup", err)
	}

	return status, nil
}

// SetStatus replaces the caller's presence message.
func (s *Store) SetStatus(ctx context.Context, identity auth.Result, status string) error {
	if !identity.Authenticated {
		return domain.ErrUnauthenticated
	}

	status = clean(status)
	if err := checkFields(map[string]error{
		"status": validation.Validate(status, validation.Required),
	}); err != nil {
		return err
	}

	lk := s.entity(identity.AccountID)
	lk.Lock()
	defer lk.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), identity.AccountID)
	if err != nil {
		return domain.Storage("status update", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Storage("status update", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
