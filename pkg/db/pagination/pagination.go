package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const MaxPageSize = 250

var ErrInvalidPageToken = errors.New("invalid_page_token")

// Pagination is bound from the page_token and page_size query parameters.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=20" binding:"gte=1,lte=250"`
}

// Limit clamps PageSize into [1, MaxPageSize], using def when unset.
func (p Pagination) Limit(def int) int {
	switch {
	case p.PageSize <= 0:
		return def
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return p.PageSize
}

// Cursor marks the last row of a page. Rows are keyed by snowflake ID, which
// orders the same way as creation time.
type Cursor struct {
	ID string `json:"id"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(id snowflake.ID) string {
	b, _ := json.Marshal(Cursor{ID: id.String()})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor returns 0 for an empty token.
func DecodeCursor(token string) (snowflake.ID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return 0, ErrInvalidPageToken
	}
	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return 0, ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil || id <= 0 {
		return 0, ErrInvalidPageToken
	}
	return id, nil
}

// Page trims rows fetched with limit+1 and builds the next token from the
// last kept row.
func Page[T any](rows []*T, limit int, idOf func(*T) snowflake.ID) ([]*T, PageInfo) {
	if len(rows) <= limit {
		return rows, PageInfo{}
	}
	rows = rows[:limit]
	return rows, PageInfo{
		NextPageToken: EncodeCursor(idOf(rows[len(rows)-1])),
		HasMore:       true,
	}
}
