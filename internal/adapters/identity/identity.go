// Package identity reads the caller identity set by the upstream gateway.
package identity

import (
	"net/http"
	"strings"

	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/google/uuid"
)

const (
	HeaderUserID = "X-User-ID"
	QueryUserID  = "user_id"
)

// FromRequest returns the user ID carried by the request. The header always wins;
// the query parameter is only consulted when allowQuery is set, since browsers cannot
// attach headers to a websocket upgrade.
func FromRequest(r *http.Request, allowQuery bool) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if raw == "" && allowQuery {
		raw = strings.TrimSpace(r.URL.Query().Get(QueryUserID))
	}
	if raw == "" {
		return uuid.Nil, shared.ErrUnauthenticated
	}

	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, shared.ErrUnauthenticated
	}
	return userID, nil
}
