// Package repository 包含了所有与数据库和 Redis 交互的逻辑。
package repository

import (
	"docbase-go/internal/model"
	"errors"
	"strings"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// likeEscape 是 LIKE 子句显式声明的转义字符。
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// containsPattern 构造大小写不敏感的子串匹配模式，转义 LIKE 通配符。
// 配合 likeClause 使用。
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// likeClause 返回 "LOWER(column) LIKE ? ESCAPE '!'"。
func likeClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '" + likeEscape + "'"
}

// paginate 返回 offset/limit 分页 scope，page 从 1 开始。
func paginate(page, size int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * size).Limit(size)
	}
}

// translate 将驱动层的“未找到”错误统一为 model.ErrNotFound。
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, redis.Nil) {
		return model.ErrNotFound
	}
	return err
}
