package service

import (
	"context"
	"testing"

	"FireMe/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuestionValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuestionService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")

	_, err := svc.CreateQuestion(ctx, user.ID, "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	q, err := svc.CreateQuestion(ctx, user.ID, "  How do you feel?  ")
	require.NoError(t, err)
	assert.Equal(t, "How do you feel?", q.Question)
}

func TestQuestionOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuestionService(db, testLogger())
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	q := createQuestion(t, db, alice, "How do you feel?")

	_, err := svc.GetQuestion(ctx, bob.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AddAnswer(ctx, bob.ID, q.ID, "Fine")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.ListAnswers(ctx, bob.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddAnswerUnique(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuestionService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	q := createQuestion(t, db, user, "How do you feel?")

	a, err := svc.AddAnswer(ctx, user.ID, q.ID, "Yes")
	require.NoError(t, err)

	// 同题下活跃答案文本唯一，唯一索引兜底
	_, err = svc.AddAnswer(ctx, user.ID, q.ID, "Yes")
	assert.ErrorIs(t, err, ErrConflict)

	// 软删后同文本可重建
	require.NoError(t, svc.DeleteAnswer(ctx, user.ID, a.ID))
	_, err = svc.AddAnswer(ctx, user.ID, q.ID, "Yes")
	assert.NoError(t, err)
}

func TestListQuestionsSearch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuestionService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	createQuestion(t, db, user, "Favorite color?")
	createQuestion(t, db, user, "Favorite food?")
	createQuestion(t, db, user, "Age bracket?")

	items, err := svc.ListQuestions(ctx, user.ID, "favorite")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = svc.ListQuestions(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestDeleteQuestionSoft(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuestionService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	q := createQuestion(t, db, user, "How do you feel?")

	require.NoError(t, svc.DeleteQuestion(ctx, user.ID, q.ID))

	var row model.Question
	require.NoError(t, db.First(&row, q.ID).Error)
	assert.False(t, row.IsActive)

	_, err := svc.GetQuestion(ctx, user.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
