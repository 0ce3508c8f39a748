package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"metahire/models"
	"metahire/store"
	"metahire/utils"
)

// PasswordHasher hashes credentials with bcrypt at the given cost.
type PasswordHasher struct {
	Cost int
}

func DefaultHasher() PasswordHasher {
	return PasswordHasher{Cost: bcrypt.DefaultCost}
}

func (h PasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h PasswordHasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewAccount is the input for creating a profile with credentials.
type NewAccount struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"max=200"`
}

// createAccount writes a profile and its credentials in one unit.
func createAccount(ctx context.Context, st store.Store, hasher PasswordHasher, in NewAccount, role models.Role) (*models.Profile, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := utils.ValidateStruct(in); err != nil {
		return nil, Validation("invalid account details", err)
	}

	taken, err := st.Profiles().Count(ctx, store.Where("email", in.Email))
	if err != nil {
		return nil, fromStore("profile", err)
	}
	if taken > 0 {
		return nil, Conflict("a profile with this email already exists")
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "failed to hash password", Err: err}
	}

	profile, err := store.Run(ctx, st, func(tx store.Store) (*models.Profile, error) {
		p := &models.Profile{
			Email:    in.Email,
			FullName: utils.OptionalString(in.FullName),
			Role:     role,
		}
		if err := tx.Profiles().Insert(ctx, p); err != nil {
			return nil, err
		}
		return p, tx.Accounts().Insert(ctx, &models.Account{ProfileID: p.ID, PasswordHash: hash})
	})
	if err != nil {
		return nil, fromStore("profile", err)
	}
	return profile, nil
}
