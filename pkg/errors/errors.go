package errors

import "errors"

var (
	// ErrOptimisticLock 乐观锁冲突：记录版本已变化
	ErrOptimisticLock = errors.New("记录已被其他请求修改，请刷新后重试")

	// ErrNoRowsAffected 写操作未命中任何记录（已被删除或不存在）
	ErrNoRowsAffected = errors.New("未找到可更新的记录")
)
