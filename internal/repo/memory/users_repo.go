package memory

import (
	"context"

	"github.com/Matheusaraujo007/chamados/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Get(ctx context.Context, id int64) (user.User, error) {
	unlock := r.s.lock()
	defer unlock()

	u, ok := r.s.st.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, u := range r.s.st.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Save(ctx context.Context, u *user.User) error {
	unlock := r.s.lock()
	defer unlock()

	for _, existing := range r.s.st.users {
		if existing.Username == u.Username && existing.ID != u.ID {
			return user.ErrUsernameTaken
		}
	}

	if u.ID == 0 {
		r.s.st.userSeq++
		u.ID = r.s.st.userSeq
		r.s.st.users[u.ID] = *u
		return nil
	}

	existing, ok := r.s.st.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	existing.PasswordHash = u.PasswordHash
	existing.Role = u.Role
	r.s.st.users[u.ID] = existing
	*u = existing
	return nil
}
