package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 本文件集中放所有权与软删除的查询作用域。
// 所有权永远沿外键链推导（QueryResults → Query → Campaign → User 等），
// 子表上绝不冗余 owner 字段，避免双写不一致。

// Alive 只看活跃行（软删除的默认读视图）
func Alive(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// OrderNewest 默认排序：created_at 倒序
func OrderNewest(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

// OwnedCampaigns 直接 user 外键：campaigns.user_id
func OwnedCampaigns(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("campaigns.user_id = ?", userID)
	}
}

// OwnedQueries 经 campaigns 关联到 user
func OwnedQueries(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN campaigns ON campaigns.id = queries.campaign_id").
			Where("campaigns.user_id = ?", userID)
	}
}

// OwnedQueryResults 经 queries → campaigns 关联到 user
func OwnedQueryResults(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN queries ON queries.id = query_results.query_id").
			Joins("JOIN campaigns ON campaigns.id = queries.campaign_id").
			Where("campaigns.user_id = ?", userID)
	}
}

// OwnedPolls 经 queries → campaigns 关联到 user
func OwnedPolls(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN queries ON queries.id = polls.query_id").
			Joins("JOIN campaigns ON campaigns.id = queries.campaign_id").
			Where("campaigns.user_id = ?", userID)
	}
}

// OwnedPollResults 经 polls → queries → campaigns 关联到 user
func OwnedPollResults(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN polls ON polls.id = poll_results.poll_id").
			Joins("JOIN queries ON queries.id = polls.query_id").
			Joins("JOIN campaigns ON campaigns.id = queries.campaign_id").
			Where("campaigns.user_id = ?", userID)
	}
}

// OwnedQuestions 直接 user 外键：questions.user_id
func OwnedQuestions(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("questions.user_id = ?", userID)
	}
}

// OwnedAnswers 经 questions 关联到 user
func OwnedAnswers(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN questions ON questions.id = answers.question_id").
			Where("questions.user_id = ?", userID)
	}
}

// LockForUpdate 自然键查找前加行级写锁，让并发 upsert 串行化。
// SQLite 不支持 FOR UPDATE 语法（单写者模型下也无此必要），仅在 Postgres 下生效
func LockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
