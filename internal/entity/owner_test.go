package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Owner
		want bool
	}{
		{name: "same user", a: UserOwner(7), b: UserOwner(7), want: true},
		{name: "different user", a: UserOwner(7), b: UserOwner(8), want: false},
		{name: "same session", a: AnonymousOwner("x"), b: AnonymousOwner("x"), want: true},
		{name: "different session", a: AnonymousOwner("x"), b: AnonymousOwner("y"), want: false},
		{name: "user vs session", a: UserOwner(7), b: AnonymousOwner("7"), want: false},
		{name: "zero values never match", a: Owner{}, b: Owner{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestOwnerFromColumns(t *testing.T) {
	userId := uint64(3)
	key := "abc"
	empty := ""

	owner, err := OwnerFromColumns(&userId, nil)
	require.NoError(t, err)
	assert.True(t, owner.Equal(UserOwner(3)))

	owner, err = OwnerFromColumns(nil, &key)
	require.NoError(t, err)
	assert.True(t, owner.Equal(AnonymousOwner("abc")))

	_, err = OwnerFromColumns(&userId, &key)
	assert.ErrorIs(t, err, ErrInvalidOwner)

	_, err = OwnerFromColumns(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidOwner)

	_, err = OwnerFromColumns(nil, &empty)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestOwnerColumnsRoundTrip(t *testing.T) {
	for _, owner := range []Owner{UserOwner(42), AnonymousOwner("session-key")} {
		userId, key := owner.Columns()
		back, err := OwnerFromColumns(userId, key)
		require.NoError(t, err)
		assert.True(t, owner.Equal(back), owner.String())
	}
}

func TestOwnerValidateAndKey(t *testing.T) {
	assert.NoError(t, UserOwner(1).Validate())
	assert.NoError(t, AnonymousOwner("k").Validate())
	assert.ErrorIs(t, AnonymousOwner("").Validate(), ErrInvalidOwner)
	assert.ErrorIs(t, Owner{}.Validate(), ErrInvalidOwner)

	assert.Equal(t, "user:1", UserOwner(1).Key())
	assert.Equal(t, "session:k", AnonymousOwner("k").Key())
	assert.Equal(t, "User(7)", UserOwner(7).String())
}
