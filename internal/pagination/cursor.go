package pagination

import (
	"time"

	"linkboard/internal/models"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
)

// Cursor is the last-seen ordering key of a page. Clients only ever see it
// encoded: a base58 string wrapping a CBOR map.
type Cursor struct {
	Sort      Sort  `cbor:"1,keyasint"`
	Order     Order `cbor:"2,keyasint"`
	Score     int64 `cbor:"3,keyasint,omitempty"`
	CreatedAt int64 `cbor:"4,keyasint"`
	ID        uint  `cbor:"5,keyasint"`
}

// Time returns the created_at boundary in UTC.
func (c Cursor) Time() time.Time {
	return time.Unix(0, c.CreatedAt).UTC()
}

// Encode renders the opaque token.
func (c Cursor) Encode() string {
	raw, err := cbor.Marshal(c)
	if err != nil {
		// A struct of scalars always marshals.
		panic(err)
	}
	return base58.Encode(raw)
}

// DecodeCursor parses token and checks that it was minted for the same
// ordering. An empty token means the first page.
func DecodeCursor(token string, sort Sort, order Order) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	invalid := models.NewValidationError("cursor is invalid").
		WithDetails(map[string]any{"field": "cursor"})

	raw, err := base58.Decode(token)
	if err != nil || len(raw) == 0 {
		return nil, invalid
	}
	var c Cursor
	if err := cbor.Unmarshal(raw, &c); err != nil || c.ID == 0 {
		return nil, invalid
	}
	if c.Sort != sort.Effective() || c.Order != order {
		return nil, models.NewValidationError("cursor does not match sort and order").
			WithDetails(map[string]any{"field": "cursor"})
	}
	return &c, nil
}
