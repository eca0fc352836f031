package service

import (
	"testing"

	"trxearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaults_OnlyWhenEmpty(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.tasks.SeedDefaults(env.ctx))
	require.NoError(t, env.tasks.SeedDefaults(env.ctx))

	tasks, err := env.tasks.List(env.ctx, false)
	require.NoError(t, err)
	assert.Len(t, tasks, len(DefaultTasks()))
}

func TestTaskCRUD(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tasks.Create(env.ctx, TaskInput{})
	assert.ErrorIs(t, err, ErrTaskFieldsRequired)

	title, kind := "Follow us", domain.TaskTypeTelegramChannel
	zero := domain.Amount(0)
	_, err = env.tasks.Create(env.ctx, TaskInput{Title: &title, Type: &kind, Reward: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	reward := domain.MustAmount("0.02")
	task, err := env.tasks.Create(env.ctx, TaskInput{Title: &title, Type: &kind, Reward: &reward})
	require.NoError(t, err)
	assert.True(t, task.IsActive)
	assert.Equal(t, domain.VerificationManual, task.VerificationMethod)

	off := false
	newTitle := "Follow our channel"
	updated, err := env.tasks.Update(env.ctx, task.ID, TaskInput{Title: &newTitle, IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.False(t, updated.IsActive)
	assert.Equal(t, reward, updated.Reward)

	active, err := env.tasks.List(env.ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, env.tasks.Delete(env.ctx, task.ID))
	assert.ErrorIs(t, env.tasks.Delete(env.ctx, task.ID), domain.ErrTaskNotFound)
	_, err = env.tasks.Get(env.ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestListForAccountAndStats(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "1001", "")
	require.NoError(t, env.tasks.SeedDefaults(env.ctx))
	tasks, err := env.tasks.List(env.ctx, true)
	require.NoError(t, err)

	_, err = env.ledger.CompleteTask(env.ctx, "1001", tasks[0].ID)
	require.NoError(t, err)

	view, err := env.tasks.ListForAccount(env.ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, len(tasks), view.TotalTasks)
	assert.Equal(t, 1, view.CompletedTasks)
	for _, tv := range view.Tasks {
		assert.Equal(t, tv.ID == tasks[0].ID, tv.IsCompleted)
		assert.Equal(t, !tv.IsCompleted, tv.CanComplete)
	}

	st, err := env.tasks.Stats(env.ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, 1, st.CompletedTasks)
	assert.Equal(t, len(tasks)-1, st.AvailableTasks)
	assert.Equal(t, tasks[0].Reward, st.TotalEarnedFromTasks)
	assert.Equal(t, domain.MustAmount("0.038"), st.TotalPossibleEarnings)
	assert.InDelta(t, 25.0, st.CompletionPercentage, 1e-9)
}

func TestListForAccount_IgnoresRetiredTasks(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "1001", "")
	require.NoError(t, env.tasks.SeedDefaults(env.ctx))
	tasks, err := env.tasks.List(env.ctx, true)
	require.NoError(t, err)

	for _, task := range tasks[:2] {
		_, err = env.ledger.CompleteTask(env.ctx, "1001", task.ID)
		require.NoError(t, err)
	}
	off := false
	_, err = env.tasks.Update(env.ctx, tasks[0].ID, TaskInput{IsActive: &off})
	require.NoError(t, err)
	require.NoError(t, env.tasks.Delete(env.ctx, tasks[1].ID))

	view, err := env.tasks.ListForAccount(env.ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, len(tasks)-2, view.TotalTasks)
	assert.Zero(t, view.CompletedTasks)

	st, err := env.tasks.Stats(env.ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, st.CompletedTasks, view.CompletedTasks)
}
