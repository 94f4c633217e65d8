package models

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind определяет тип сущности, к которой относится событие
type EntityKind string

// Поддерживаемые типы сущностей
const (
	KindTransaction EntityKind = "txn"
	KindBudget      EntityKind = "budget"
	KindRecurring   EntityKind = "recurring"
	KindAlert       EntityKind = "alert"
	KindGoal        EntityKind = "goal"
	KindAccount     EntityKind = "account"
)

// EntityType returns the outbox entity_type label for the kind.
func (k EntityKind) EntityType() string {
	switch k {
	case KindTransaction:
		return "transaction"
	case KindGoal:
		return "savings_goal"
	default:
		return string(k)
	}
}

// Operation определяет вид изменения
type Operation string

// Операции над сущностями
const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// EventType is the tag of a replication event, e.g. "txn_created".
type EventType struct {
	Kind EntityKind
	Op   Operation
}

// NewEventType собирает тег события из типа сущности и операции
func NewEventType(kind EntityKind, op Operation) EventType {
	return EventType{Kind: kind, Op: op}
}

func (e EventType) String() string {
	return string(e.Kind) + "_" + string(e.Op)
}

// ParseEventType splits "<kind>_<op>" and checks both halves are known.
func ParseEventType(s string) (EventType, error) {
	i := strings.LastIndexByte(s, '_')
	if i <= 0 || i == len(s)-1 {
		return EventType{}, fmt.Errorf("malformed event type %q", s)
	}

	et := EventType{Kind: EntityKind(s[:i]), Op: Operation(s[i+1:])}
	switch et.Kind {
	case KindTransaction, KindBudget, KindRecurring, KindAlert, KindGoal, KindAccount:
	default:
		return EventType{}, fmt.Errorf("unknown entity kind in event type %q", s)
	}
	switch et.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return EventType{}, fmt.Errorf("unknown operation in event type %q", s)
	}

	return et, nil
}

// OutboxRecord представляет локальное изменение, ожидающее отправки
type OutboxRecord struct {
	CreatedAt      time.Time  `json:"created_at"`                 // время постановки в очередь
	NextAttemptAt  *time.Time `json:"next_attempt_at,omitempty"`  // не отправлять раньше этого момента
	DeadLetteredAt *time.Time `json:"dead_lettered_at,omitempty"` // исключена из отправки после N неудач
	ID             string     `json:"id"`                         // UUID, он же id удаленного события
	EntityType     string     `json:"entity_type"`                // "transaction", "budget", ...
	EventType      string     `json:"event_type"`                 // "txn_created", ...
	EntityID       string     `json:"entity_id"`                  // id изменённой сущности
	LastError      string     `json:"last_error,omitempty"`       // текст последней ошибки отправки
	Payload        []byte     `json:"payload"`                    // каноничный JSON снимка сущности
	RetryCount     int        `json:"retry_count"`                // число неудачных попыток
	Synced         bool       `json:"synced"`                     // событие принято удаленным журналом
}

// RemoteEvent is one decoded entry of the remote event log.
type RemoteEvent struct {
	CreatedAt      time.Time      // время создания события на устройстве-источнике
	Payload        map[string]any // декодированный payload
	ID             string         // id документа события
	Type           string         // тег события как есть
	EntityID       string         // id сущности
	OriginDeviceID string         // устройство-автор
	SchemaVersion  int64
}

// Before reports whether e sorts before other in (createdAt, id) order.
func (e RemoteEvent) Before(other RemoteEvent) bool {
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.ID < other.ID
}
