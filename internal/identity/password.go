package identity

import "golang.org/x/crypto/bcrypt"

// Hasher хэширует пароли bcrypt'ом; Cost берётся из auth.bcrypt_cost.
type Hasher struct {
	Cost int
}

func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), err
}

func (h Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
