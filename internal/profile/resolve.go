package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"neighborhood-matcher/internal/common/validation"
	"neighborhood-matcher/internal/models"
)

var (
	ErrInvalid = errors.New("user profile is invalid")
	ErrMissing = errors.New("userId or userProfile is required")
)

// Source is anything that can look a profile up by id.
type Source interface {
	Get(ctx context.Context, id string) (*models.UserProfile, error)
}

// Decode schema-checks a raw profile document and decodes it. Violations are
// reported as ErrInvalid with every problem listed.
func Decode(raw []byte) (*models.UserProfile, error) {
	result, err := validation.ValidateProfileJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, result.Summary())
	}

	var p models.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &p, nil
}

// Resolve prefers an inline profile document and falls back to a lookup by
// userID. src may be nil when no profile storage is configured.
func Resolve(ctx context.Context, src Source, userID string, raw json.RawMessage) (*models.UserProfile, error) {
	if len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		p, err := Decode(raw)
		if err != nil {
			return nil, err
		}
		if p.ID == "" {
			p.ID = userID
		}
		return p, nil
	}

	if userID == "" || src == nil {
		return nil, ErrMissing
	}
	return src.Get(ctx, userID)
}
