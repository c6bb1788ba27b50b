package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAcceptsDateOnlyAndRFC3339(t *testing.T) {
	want := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{`"2026-01-31"`, `"2026-01-31T17:45:00Z"`, `"2026-01-31T08:00:00"`} {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(in), &d), in)
		assert.Equal(t, want, d.Time(), in)
	}
}

func TestDateEmptyAndNullAreZero(t *testing.T) {
	for _, in := range []string{`null`, `""`, `"  "`} {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(in), &d), in)
		assert.True(t, d.Time().IsZero(), in)
	}
}

func TestDateRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`42`), &d))
}

func TestCreateAccountRequestOmittedJoinedOn(t *testing.T) {
	var req CreateAccountRequest
	require.NoError(t, json.Unmarshal([]byte(`{"username":"alice","email":"alice@x.com"}`), &req))
	assert.Nil(t, req.ID)
	assert.True(t, req.JoinedOn.Time().IsZero())
}

func TestAccountResponseMarshalsDateOnly(t *testing.T) {
	b, err := json.Marshal(AccountResponse{
		ID:       1,
		Username: "alice",
		JoinedOn: NewDate(time.Date(2026, time.March, 2, 13, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"joinedOn":"2026-03-02"`)
}
