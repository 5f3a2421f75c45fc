package repository

import (
	"context"
	"strings"

	"FireMe/internal/model"

	"gorm.io/gorm"
)

// QuestionRepository 问题与候选答案的数据访问
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *model.Question) error
	SaveQuestion(ctx context.Context, q *model.Question) error
	// ListQuestions search 非空时做大小写不敏感的子串过滤
	ListQuestions(ctx context.Context, userID uint64, search string) ([]*model.Question, error)
	GetOwnedQuestion(ctx context.Context, userID, id uint64) (*model.Question, error)
	// GetActiveQuestion 不限归属（Poll 引用他人问题时的活跃性校验）
	GetActiveQuestion(ctx context.Context, id uint64) (*model.Question, error)

	CreateAnswer(ctx context.Context, a *model.Answer) error
	// ListAnswers 问题下的活跃答案，按 ID 升序（作答选项展示顺序要稳定）
	ListAnswers(ctx context.Context, questionID uint64) ([]*model.Answer, error)
	GetOwnedAnswer(ctx context.Context, userID, id uint64) (*model.Answer, error)
	// GetActiveAnswer 答案归属校验用（submit_response 校验 answer.question == poll.question）
	GetActiveAnswer(ctx context.Context, id uint64) (*model.Answer, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository 创建 QuestionRepository
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *questionRepository) SaveQuestion(ctx context.Context, q *model.Question) error {
	return r.db.WithContext(ctx).Save(q).Error
}

func (r *questionRepository) ListQuestions(ctx context.Context, userID uint64, search string) ([]*model.Question, error) {
	db := r.db.WithContext(ctx).Scopes(Alive, OrderNewest, OwnedQuestions(userID))
	if s := strings.TrimSpace(search); s != "" {
		db = db.Where("lower(question) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var questions []*model.Question
	err := db.Find(&questions).Error
	return questions, err
}

func (r *questionRepository) GetOwnedQuestion(ctx context.Context, userID, id uint64) (*model.Question, error) {
	var q model.Question
	err := r.db.WithContext(ctx).Scopes(Alive, OwnedQuestions(userID)).
		First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepository) GetActiveQuestion(ctx context.Context, id uint64) (*model.Question, error) {
	var q model.Question
	if err := r.db.WithContext(ctx).Scopes(Alive).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepository) CreateAnswer(ctx context.Context, a *model.Answer) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *questionRepository) ListAnswers(ctx context.Context, questionID uint64) ([]*model.Answer, error) {
	var answers []*model.Answer
	err := r.db.WithContext(ctx).Scopes(Alive).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

func (r *questionRepository) GetOwnedAnswer(ctx context.Context, userID, id uint64) (*model.Answer, error) {
	var a model.Answer
	err := r.db.WithContext(ctx).Model(&model.Answer{}).
		Scopes(OwnedAnswers(userID)).
		Where("answers.is_active = ? AND answers.id = ?", true, id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *questionRepository) GetActiveAnswer(ctx context.Context, id uint64) (*model.Answer, error) {
	var a model.Answer
	if err := r.db.WithContext(ctx).Scopes(Alive).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
