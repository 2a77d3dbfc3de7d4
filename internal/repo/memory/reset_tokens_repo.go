package memory

import (
	"context"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/resettoken"
)

type ResetTokensRepo struct {
	s *Store
}

func (r *ResetTokensRepo) GetByHash(ctx context.Context, tokenHash string) (resettoken.ResetToken, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, t := range r.s.st.tokens {
		if t.TokenHash == tokenHash {
			return t, nil
		}
	}
	return resettoken.ResetToken{}, resettoken.ErrNotFound
}

func (r *ResetTokensRepo) Save(ctx context.Context, t *resettoken.ResetToken) error {
	unlock := r.s.lock()
	defer unlock()

	if t.ID == 0 {
		r.s.st.tokenSeq++
		t.ID = r.s.st.tokenSeq
	}
	r.s.st.tokens[t.ID] = *t
	return nil
}

func (r *ResetTokensRepo) Delete(ctx context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()

	if _, ok := r.s.st.tokens[id]; !ok {
		return resettoken.ErrNotFound
	}
	delete(r.s.st.tokens, id)
	return nil
}

func (r *ResetTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	unlock := r.s.lock()
	defer unlock()

	var n int64
	for id, t := range r.s.st.tokens {
		if t.Expired(now) {
			delete(r.s.st.tokens, id)
			n++
		}
	}
	return n, nil
}
