package services

import (
	"errors"
	"time"

	"studyshare-backend-go/internal/models"
	"studyshare-backend-go/internal/store"
)

// Default back-office account, created on first use. Only the bcrypt hash
// of the password ever reaches disk.
const (
	DefaultAdminUsername    = "admin"
	DefaultAdminPassword    = "114514"
	DefaultAdminDisplayName = "管理者"
)

const minAdminPasswordLength = 8

// EnsureAdminAccount returns the stored singleton, creating it with the
// defaults when none exists yet.
func EnsureAdminAccount(admins store.Admin, tokens TokenService) (models.AdminAccount, error) {
	account, err := admins.Get()
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.AdminAccount{}, err
	}
	hash, err := tokens.HashPassword(DefaultAdminPassword)
	if err != nil {
		return models.AdminAccount{}, err
	}
	account = models.AdminAccount{
		Username:     DefaultAdminUsername,
		PasswordHash: hash,
		DisplayName:  DefaultAdminDisplayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := admins.Save(account); err != nil {
		return models.AdminAccount{}, err
	}
	return account, nil
}

// AuthenticateAdmin verifies the password against the stored hash.
func AuthenticateAdmin(admins store.Admin, tokens TokenService, password string) (models.AdminAccount, error) {
	account, err := EnsureAdminAccount(admins, tokens)
	if err != nil {
		return models.AdminAccount{}, err
	}
	if !tokens.VerifyPassword(password, account.PasswordHash) {
		return models.AdminAccount{}, ErrUnauthorized("パスワードが違います")
	}
	return account, nil
}

// ChangeAdminPassword swaps the stored hash after verifying the current
// password and stamps lastPasswordChange.
func ChangeAdminPassword(admins store.Admin, tokens TokenService, current, next string) error {
	account, err := EnsureAdminAccount(admins, tokens)
	if err != nil {
		return err
	}
	if !tokens.VerifyPassword(current, account.PasswordHash) {
		return ErrUnauthorized("現在のパスワードが違います")
	}
	if len([]rune(next)) < minAdminPasswordLength {
		return ErrBadRequest("新しいパスワードは8文字以上にしてください")
	}
	hash, err := tokens.HashPassword(next)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	account.PasswordHash = hash
	account.LastPasswordChange = &now
	return admins.Save(account)
}
