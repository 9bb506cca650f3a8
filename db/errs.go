package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 错误分类：控制器只认这四类，别的都按 500 处理。
var ErrNotFound = errors.New("record not found")

// ConflictError 状态前置条件不满足（重复借出 / 重名 / 分类下还有物品等）。
// ItemCount 仅在删除非空分类时有意义。
type ConflictError struct {
	Reason    string
	ItemCount int64
}

func (e *ConflictError) Error() string { return e.Reason }

// ForbiddenError 安全不变量保护（删自己 / 删最后一个管理员）。
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

// IntegrityError 内部一致性被破坏（比如 status = lent 却没有未归还台账）。
// 对外只给脱敏信息，完整细节写日志，不做自动修复。
type IntegrityError struct {
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation: %s", e.Detail)
}

func conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...any) *ForbiddenError {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

// asNotFound 把 gorm 的未命中统一成 ErrNotFound，其他错误原样透传。
func asNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
