package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ограничения денормализованного снимка транзакции
const (
	maxTags      = 20
	maxTagLen    = 30
	maxFreeText  = 200
	timeLayoutTZ = time.RFC3339Nano
)

// Timestamp is a point in time that tolerates every layout seen in payloads:
// RFC 3339 with or without fraction and the naive "2006-01-02T15:04:05" and
// date-only forms, which are read as UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns a pointer to a Timestamp for t, or nil for the zero time.
func NewTimestamp(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	return &Timestamp{Time: t.UTC()}
}

// NewTimestampPtr is NewTimestamp for optional times.
func NewTimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	return NewTimestamp(*t)
}

// Ptr returns the time as an optional value.
func (t *Timestamp) Ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses s using the layouts accepted by Timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(timeLayoutTZ, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// FormatTime renders t as UTC RFC 3339 with a trailing "Z".
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayoutTZ)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(FormatTime(t.Time))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Amount is a monetary value that decodes from a JSON number or a numeric string.
type Amount float64

// NewAmount returns a pointer to an Amount.
func NewAmount(f float64) *Amount {
	a := Amount(f)
	return &a
}

// Float returns the amount, or zero for nil.
func (a *Amount) Float() float64 {
	if a == nil {
		return 0
	}
	return float64(*a)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// Payload is the typed body of a replication event.
type Payload interface {
	// Kind возвращает тип сущности, к которой относится payload
	Kind() EntityKind
	// Key возвращает id сущности из payload, пустую строку если его нет
	Key() string
}

// TransactionPayload is the denormalized snapshot of a transaction.
// CategoryID and SubcategoryID carry sync ids, never local keys.
type TransactionPayload struct {
	Amount          *Amount    `json:"amount,omitempty"`
	OccurredAt      *Timestamp `json:"occurred_at,omitempty"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
	TransactionID   string     `json:"transaction_id,omitempty"`
	ID              string     `json:"id,omitempty"`
	AccountID       string     `json:"account_id,omitempty"`
	AccountName     string     `json:"account_name,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	CategoryName    string     `json:"category_name,omitempty"`
	SubcategoryID   string     `json:"subcategory_id,omitempty"`
	SubcategoryName string     `json:"subcategory_name,omitempty"`
	Type            string     `json:"type,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	Merchant        string     `json:"merchant,omitempty"`
	Note            string     `json:"note,omitempty"`
	RecurringID     string     `json:"recurring_id,omitempty"`
	ServerID        string     `json:"server_id,omitempty"`
	Tags            []string   `json:"tags"`
}

func (p *TransactionPayload) Kind() EntityKind { return KindTransaction }

func (p *TransactionPayload) Key() string {
	if p.TransactionID != "" {
		return p.TransactionID
	}
	return p.ID
}

// NewTransactionPayload builds the snapshot of txn with its references.
// sub may be nil.
func NewTransactionPayload(txn *Transaction, account *Account, cat *Category, sub *SubCategory) *TransactionPayload {
	p := &TransactionPayload{
		TransactionID: txn.ID,
		AccountID:     txn.AccountID,
		Type:          txn.Type,
		Amount:        NewAmount(txn.Amount),
		Currency:      txn.Currency,
		OccurredAt:    NewTimestamp(txn.OccurredAt),
		UpdatedAt:     NewTimestamp(txn.UpdatedAt),
		Merchant:      truncate(txn.Merchant, maxFreeText),
		Note:          truncate(txn.Note, maxFreeText),
		RecurringID:   txn.RecurringID,
		ServerID:      txn.ServerID,
		Tags:          limitTags(txn.Tags),
	}
	if account != nil {
		p.AccountName = account.Name
	}
	if cat != nil {
		p.CategoryID = cat.SyncID
		p.CategoryName = cat.Name
	}
	if sub != nil {
		p.SubcategoryID = sub.SyncID
		p.SubcategoryName = sub.Name
	}
	return p
}

// BudgetPayload is the snapshot of a budget.
type BudgetPayload struct {
	Amount          *Amount    `json:"amount,omitempty"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
	ClientTimestamp *Timestamp `json:"client_timestamp,omitempty"`
	ID              string     `json:"id,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	CategoryName    string     `json:"category_name,omitempty"`
	Month           string     `json:"month,omitempty"`
	ServerID        string     `json:"server_id,omitempty"`
}

func (p *BudgetPayload) Kind() EntityKind { return KindBudget }
func (p *BudgetPayload) Key() string      { return p.ID }

// NewBudgetPayload builds the snapshot of b.
func NewBudgetPayload(b *Budget, cat *Category) *BudgetPayload {
	p := &BudgetPayload{
		ID:        b.ID,
		Month:     b.Month,
		Amount:    NewAmount(b.Amount),
		UpdatedAt: NewTimestamp(b.UpdatedAt),
		ServerID:  b.ServerID,
	}
	if cat != nil {
		p.CategoryID = cat.SyncID
		p.CategoryName = cat.Name
	}
	return p
}

// RecurringPayload is the snapshot of a recurring rule.
type RecurringPayload struct {
	Amount          *Amount    `json:"amount,omitempty"`
	StartDate       *Timestamp `json:"start_date,omitempty"`
	EndDate         *Timestamp `json:"end_date,omitempty"`
	NextRun         *Timestamp `json:"next_run,omitempty"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
	ClientTimestamp *Timestamp `json:"client_timestamp,omitempty"`
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	AccountID       string     `json:"account_id,omitempty"`
	AccountName     string     `json:"account_name,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	CategoryName    string     `json:"category_name,omitempty"`
	SubcategoryID   string     `json:"subcategory_id,omitempty"`
	SubcategoryName string     `json:"subcategory_name,omitempty"`
	Frequency       string     `json:"frequency,omitempty"`
	ServerID        string     `json:"server_id,omitempty"`
	AutoGenerate    bool       `json:"auto_generate"`
}

func (p *RecurringPayload) Kind() EntityKind { return KindRecurring }
func (p *RecurringPayload) Key() string      { return p.ID }

// NewRecurringPayload builds the snapshot of r.
func NewRecurringPayload(r *RecurringRule, account *Account, cat *Category, sub *SubCategory) *RecurringPayload {
	p := &RecurringPayload{
		ID:           r.ID,
		Name:         r.Name,
		Type:         r.Type,
		Amount:       NewAmount(r.Amount),
		Currency:     r.Currency,
		AccountID:    r.AccountID,
		Frequency:    r.Frequency,
		StartDate:    NewTimestamp(r.StartDate),
		EndDate:      NewTimestampPtr(r.EndDate),
		NextRun:      NewTimestampPtr(r.NextRun),
		AutoGenerate: r.AutoGenerate,
		UpdatedAt:    NewTimestamp(r.UpdatedAt),
		ServerID:     r.ServerID,
	}
	if account != nil {
		p.AccountName = account.Name
	}
	if cat != nil {
		p.CategoryID = cat.SyncID
		p.CategoryName = cat.Name
	}
	if sub != nil {
		p.SubcategoryID = sub.SyncID
		p.SubcategoryName = sub.Name
	}
	return p
}

// AlertPayload is the snapshot of an alert.
type AlertPayload struct {
	Amount          *Amount    `json:"amount,omitempty"`
	ExpiresAt       *Timestamp `json:"expires_at,omitempty"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
	ClientTimestamp *Timestamp `json:"client_timestamp,omitempty"`
	ID              string     `json:"id,omitempty"`
	AlertType       string     `json:"alert_type,omitempty"`
	Severity        string     `json:"severity,omitempty"`
	Title           string     `json:"title,omitempty"`
	Message         string     `json:"message,omitempty"`
	TransactionID   string     `json:"transaction_id,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	CategoryName    string     `json:"category_name,omitempty"`
	ActionTaken     string     `json:"action_taken,omitempty"`
	ServerID        string     `json:"server_id,omitempty"`
	IsRead          bool       `json:"is_read"`
	IsDismissed     bool       `json:"is_dismissed"`
}

func (p *AlertPayload) Kind() EntityKind { return KindAlert }
func (p *AlertPayload) Key() string      { return p.ID }

// GoalPayload is the snapshot of a savings goal.
type GoalPayload struct {
	TargetAmount    *Amount    `json:"target_amount,omitempty"`
	CurrentAmount   *Amount    `json:"current_amount,omitempty"`
	Deadline        *Timestamp `json:"deadline,omitempty"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
	ClientTimestamp *Timestamp `json:"client_timestamp,omitempty"`
	IsActive        *bool      `json:"is_active,omitempty"`
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name,omitempty"`
	Description     string     `json:"description,omitempty"`
	Icon            string     `json:"icon,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	CategoryName    string     `json:"category_name,omitempty"`
	ServerID        string     `json:"server_id,omitempty"`
	Achieved        bool       `json:"achieved"`
}

func (p *GoalPayload) Kind() EntityKind { return KindGoal }
func (p *GoalPayload) Key() string      { return p.ID }

// AccountPayload is the snapshot of an account.
type AccountPayload struct {
	OpeningBalance  *Amount    `json:"opening_balance,omitempty"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
	ClientTimestamp *Timestamp `json:"client_timestamp,omitempty"`
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	ServerID        string     `json:"server_id,omitempty"`
}

func (p *AccountPayload) Kind() EntityKind { return KindAccount }
func (p *AccountPayload) Key() string      { return p.ID }

// NewAccountPayload builds the snapshot of a.
func NewAccountPayload(a *Account) *AccountPayload {
	return &AccountPayload{
		ID:             a.ID,
		Name:           a.Name,
		Type:           a.Type,
		Currency:       a.Currency,
		OpeningBalance: NewAmount(a.OpeningBalance),
		UpdatedAt:      NewTimestamp(a.UpdatedAt),
		ServerID:       a.ServerID,
	}
}

// NewPayload returns an empty payload of the given kind.
func NewPayload(kind EntityKind) (Payload, error) {
	switch kind {
	case KindTransaction:
		return &TransactionPayload{}, nil
	case KindBudget:
		return &BudgetPayload{}, nil
	case KindRecurring:
		return &RecurringPayload{}, nil
	case KindAlert:
		return &AlertPayload{}, nil
	case KindGoal:
		return &GoalPayload{}, nil
	case KindAccount:
		return &AccountPayload{}, nil
	default:
		return nil, fmt.Errorf("no payload for entity kind %q", kind)
	}
}

// DecodePayload converts the generic payload map of a remote event into the
// typed payload for kind.
func DecodePayload(kind EntityKind, raw map[string]any) (Payload, error) {
	p, err := NewPayload(kind)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return p, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	return p, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func limitTags(tags []string) []string {
	out := make([]string, 0, min(len(tags), maxTags))
	for _, t := range tags {
		if len(out) == maxTags {
			break
		}
		out = append(out, truncate(t, maxTagLen))
	}
	return out
}
