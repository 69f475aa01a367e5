package service

import (
	"context"
	"testing"

	"ai-chatbot-be/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonaServiceFind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	persona, err := f.personas.Find(ctx, "teacher_tutor")
	require.NoError(t, err)
	assert.Equal(t, "asst_teacher", persona.Handle)

	// Served from cache after the row changes underneath.
	require.NoError(t, f.db.Model(&model.Assistant{}).
		Where("mode_id = ?", "teacher_tutor").
		Update("backend_handle", "asst_rotated").Error)

	cached, err := f.personas.Find(ctx, "teacher_tutor")
	require.NoError(t, err)
	assert.Equal(t, "asst_teacher", cached.Handle)

	f.personas.Invalidate()
	fresh, err := f.personas.Find(ctx, "teacher_tutor")
	require.NoError(t, err)
	assert.Equal(t, "asst_rotated", fresh.Handle)

	_, err = f.personas.Find(ctx, "designer")
	assert.ErrorIs(t, err, ErrPersonaNotFound)
}

func TestPersonaServiceList(t *testing.T) {
	f := newFixture(t)

	personas, err := f.personas.List(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(personas))
	for i, p := range personas {
		ids[i] = p.ModeId
	}
	assert.Equal(t, []string{"teacher_tutor", "poet_storyteller"}, ids)

	modes := f.personas.Catalog()
	require.Contains(t, modes, "professional")
	assert.Equal(t, "teacher_tutor", modes["professional"].Assistants[0].ID)
}
