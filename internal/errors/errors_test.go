package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderCarriesMetadata(t *testing.T) {
	t.Parallel()

	base := stderrors.New("no such file")
	err := New(base).
		Component("datastore").
		Category(CategoryNotFound).
		Context("name", "a.mp3").
		Build()

	assert.Equal(t, "no such file", err.Error())
	assert.Equal(t, "datastore", err.Component)
	assert.Equal(t, CategoryNotFound, err.Category)
	assert.Equal(t, "a.mp3", err.GetContext()["name"])
	assert.True(t, stderrors.Is(err, base))
}

func TestCategoryMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		want     bool
	}{
		{
			name:     "direct category",
			err:      Newf("duplicate name").Category(CategoryConflict).Build(),
			category: CategoryConflict,
			want:     true,
		},
		{
			name:     "wrapped category",
			err:      stderrors.Join(stderrors.New("outer"), Newf("inner").Category(CategoryDecode).Build()),
			category: CategoryDecode,
			want:     true,
		},
		{
			name:     "plain error has no category",
			err:      stderrors.New("plain"),
			category: CategoryDatabase,
			want:     false,
		},
		{
			name:     "wrong category",
			err:      Newf("x").Category(CategoryAudio).Build(),
			category: CategoryMail,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasCategory(tt.err, tt.category))
		})
	}
}

func TestNilWrappedError(t *testing.T) {
	t.Parallel()

	err := New(nil).Category(CategoryAudio).Context("error", "no output device").Build()
	require.NotNil(t, err)
	assert.Equal(t, string(CategoryAudio), err.Error())
	assert.Equal(t, CategoryAudio, CategoryOf(err))
}
