// Package usecase contains the playback operations. Each validates the
// current state before touching the player and returns a typed error
// without side effects when the call is illegal.
package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bitperfect/internal/app/session"
	"github.com/osa030/bitperfect/internal/domain/audio"
)

// Load creates a playback session for a file.
type Load struct {
	sessions session.Manager
}

// NewLoad creates the load use case.
func NewLoad(sessions session.Manager) *Load {
	return &Load{sessions: sessions}
}

// Execute returns a ready session, audio.ErrLoadingCancelled when cancelled,
// or a LoadFailed error describing the cause.
func (u *Load) Execute(ctx context.Context, path string) (*session.Session, error) {
	s, err := u.sessions.CreateSession(ctx, path)
	if err != nil {
		if errors.Is(err, session.ErrCancelled) || errors.Is(err, context.Canceled) {
			return nil, audio.ErrLoadingCancelled
		}
		zlog.Error().Err(err).Msgf("usecase: load failed: path=%s", path)
		return nil, audio.LoadFailed(err.Error())
	}
	return s, nil
}
