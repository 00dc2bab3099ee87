package security

import (
	"golang.org/x/crypto/bcrypt"
)

type Password struct {
	cost int
}

// NewPassword hashes with cost, falling back to bcrypt.DefaultCost when cost is out of range.
func NewPassword(cost int) *Password {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Password{cost: cost}
}

func (p *Password) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (p *Password) ComparePassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
