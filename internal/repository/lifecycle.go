package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// 软删除生命周期的统一实现：所有实体共用，不感知所有权。
// soft delete / restore 幂等（重复调用影响行数为 0），且每次成功翻转都会刷新 modified_at。

// SoftDelete 将活跃行置为非活跃。返回影响行数（已非活跃则为 0）
func SoftDelete(ctx context.Context, db *gorm.DB, mdl interface{}, id uint64) (int64, error) {
	res := db.WithContext(ctx).Model(mdl).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":   false,
			"modified_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// Restore SoftDelete 的对称逆操作
func Restore(ctx context.Context, db *gorm.DB, mdl interface{}, id uint64) (int64, error) {
	res := db.WithContext(ctx).Model(mdl).
		Where("id = ? AND is_active = ?", id, false).
		Updates(map[string]interface{}{
			"is_active":   true,
			"modified_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// HardDelete 物理删除，绕过软删层，不可恢复
func HardDelete(ctx context.Context, db *gorm.DB, mdl interface{}, id uint64) (int64, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(mdl)
	return res.RowsAffected, res.Error
}
