package api

import "github.com/formpipe/formpipe/internal/services"

type authStoreAdapter struct {
	store Store
}

func newAuthService(store Store, signer services.TokenSigner) *services.AuthService {
	return services.NewAuthService(&authStoreAdapter{store: store}, signer)
}

func (a *authStoreAdapter) FindUserByEmail(email string) (*services.User, error) {
	u, err := a.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	return toServiceUser(u), nil
}

func (a *authStoreAdapter) AddUser(u *services.User) error {
	return a.store.AddUser(&User{
		ID:        u.ID,
		Email:     u.Email,
		PassHash:  u.PassHash,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	})
}
