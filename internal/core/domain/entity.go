// Package domain file: internal/core/domain/entity.go
package domain

import "time"

// State 描述一条实体记录的生命周期阶段
type State int

const (
	StateNew State = iota
	StatePersisted
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StatePersisted:
		return "PERSISTED"
	case StateDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Meta 是所有实体共享的主键与时间戳字段，以值的方式嵌入实体结构体。
// 生命周期: NEW -(insert)-> PERSISTED -(update)*-> PERSISTED -(delete)-> DELETED
type Meta struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

// Metadata 让泛型仓储可以通过 *T 访问嵌入的 Meta
func (m *Meta) Metadata() *Meta { return m }

// State 由字段推导，无需额外存储
func (m *Meta) State() State {
	switch {
	case m.ID == 0:
		return StateNew
	case m.DeletedAt != nil:
		return StateDeleted
	default:
		return StatePersisted
	}
}
