package imagestore

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrDisabled reports that no image host is configured.
var ErrDisabled = errors.New("image uploads disabled")

// Disabled stands in for the Cloudinary client when no account is
// configured. Uploads are rejected so a listing is never created with
// missing photos; deletes are no-ops because nothing was ever stored.
type Disabled struct{}

// Upload rejects the payload with ErrDisabled.
func (Disabled) Upload(_ context.Context, _ []byte) (string, string, error) {
	return "", "", ErrDisabled
}

// Delete reports success. A disabled store holds no blobs.
func (Disabled) Delete(_ context.Context, publicID string) error {
	log.Debug().Str("public_id", publicID).Msg("image store disabled, delete skipped")
	return nil
}
