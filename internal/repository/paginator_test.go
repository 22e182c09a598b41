package repository

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPaginator(t *testing.T) {
	t.Run("should fail empty token", func(t *testing.T) {
		// given
		pageToken := ""

		// when
		paginator, err := DecodePageToken(pageToken)

		// then
		assert.True(t, errors.Is(err, ErrInvalidPaginationToken))
		assert.Nil(t, paginator)
	})

	t.Run("should fail invalid token", func(t *testing.T) {
		// given
		pageToken := "querty123"

		// when
		paginator, err := DecodePageToken(pageToken)

		// then
		assert.Error(t, err)
		var corruptInputErr base64.CorruptInputError
		assert.True(t, errors.As(err, &corruptInputErr))
		assert.Nil(t, paginator)
	})

	t.Run("should succeed", func(t *testing.T) {
		// given
		originalPaginator := Paginator{
			LastID:        uuid.New(),
			LastCreatedAt: time.Now(),
		}

		// when
		encodedToken := originalPaginator.Encode()
		decodedPaginator, err := DecodePageToken(encodedToken)

		// then
		assert.NoError(t, err)
		assert.Equal(t, originalPaginator.LastID, decodedPaginator.LastID)
		assert.Equal(t, originalPaginator.LastCreatedAt.Unix(), decodedPaginator.LastCreatedAt.Unix())
	})
}

func TestQuery_ApplyPagination(t *testing.T) {
	t.Run("defaults limit when not set", func(t *testing.T) {
		query := NewQuery()

		err := query.ApplyPagination(0, "")

		assert.NoError(t, err)
		assert.Equal(t, DefaultPaginationLimit, query.Limit)
		assert.Nil(t, query.Paginator)
	})

	t.Run("caps limit at maximum", func(t *testing.T) {
		query := NewQuery()

		err := query.ApplyPagination(5000, "")

		assert.NoError(t, err)
		assert.Equal(t, maxPaginationLimit, query.Limit)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		query := NewQuery()

		err := query.ApplyPagination(10, "not-a-token")

		assert.Error(t, err)
	})

	t.Run("decodes valid token into paginator", func(t *testing.T) {
		cursor := Paginator{LastID: uuid.New(), LastCreatedAt: time.Now()}
		query := NewQuery()

		err := query.ApplyPagination(25, cursor.Encode())

		assert.NoError(t, err)
		assert.Equal(t, 25, query.Limit)
		assert.NotNil(t, query.Paginator)
		assert.Equal(t, cursor.LastID, query.Paginator.LastID)
	})
}
