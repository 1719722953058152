package plandok_test

import (
	"testing"

	"github.com/fwojciec/plandok"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := plandok.Errorf(plandok.ENOTFOUND, "document %q not found", "test")

	assert.Equal(t, plandok.ENOTFOUND, plandok.ErrorCode(err))
	assert.Equal(t, "document \"test\" not found", plandok.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, plandok.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, plandok.ErrorMessage(nil))
}

func TestDocument_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts a complete document", func(t *testing.T) {
		t.Parallel()

		doc := &plandok.Document{
			Title:    "Kommuneplan 2020",
			Category: "Kommuneplan",
			URL:      "https://oslo.kommune.no/kommuneplan",
		}
		assert.NoError(t, doc.Validate())
	})

	t.Run("rejects missing title", func(t *testing.T) {
		t.Parallel()

		doc := &plandok.Document{
			Category: "Kommuneplan",
			URL:      "https://oslo.kommune.no/kommuneplan",
		}
		assert.Equal(t, plandok.EINVALID, plandok.ErrorCode(doc.Validate()))
	})

	t.Run("rejects relative URL", func(t *testing.T) {
		t.Parallel()

		doc := &plandok.Document{
			Title:    "Kommuneplan 2020",
			Category: "Kommuneplan",
			URL:      "/kommuneplan",
		}
		assert.Equal(t, plandok.EINVALID, plandok.ErrorCode(doc.Validate()))
	})

	t.Run("rejects non-http scheme", func(t *testing.T) {
		t.Parallel()

		doc := &plandok.Document{
			Title:    "Kommuneplan 2020",
			Category: "Kommuneplan",
			URL:      "ftp://oslo.kommune.no/kommuneplan",
		}
		assert.Equal(t, plandok.EINVALID, plandok.ErrorCode(doc.Validate()))
	})
}
