package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	headerID := uuid.New()
	queryID := uuid.New()

	tests := []struct {
		name       string
		header     string
		query      string
		allowQuery bool
		want       uuid.UUID
		wantErr    bool
	}{
		{name: "header", header: headerID.String(), want: headerID},
		{name: "header wins over query", header: headerID.String(), query: queryID.String(), allowQuery: true, want: headerID},
		{name: "query allowed", query: queryID.String(), allowQuery: true, want: queryID},
		{name: "query ignored", query: queryID.String(), wantErr: true},
		{name: "missing", wantErr: true},
		{name: "malformed", header: "not-a-uuid", wantErr: true},
		{name: "nil uuid", header: uuid.Nil.String(), wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			target := "/ws"
			if tc.query != "" {
				target += "?user_id=" + tc.query
			}
			req := httptest.NewRequest("GET", target, nil)
			if tc.header != "" {
				req.Header.Set(HeaderUserID, tc.header)
			}

			got, err := FromRequest(req, tc.allowQuery)
			if tc.wantErr {
				require.ErrorIs(t, err, shared.ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
