package models

import "time"

// Значения по умолчанию для заглушек, создаваемых при слиянии
const (
	DefaultCurrency        = "USD"
	PlaceholderAccountName = "Cuenta sincronizada"
	PlaceholderAccountType = "efectivo"
	PlaceholderCategory    = "Sin categoría"
	PlaceholderSubCategory = "Sin subcategoría"
	PlaceholderBudgetGroup = "Otros"
)

// Типы транзакций
const (
	TxnTypeIncome   = "ingreso"
	TxnTypeExpense  = "gasto"
	TxnTypeTransfer = "transferencia"
)

// Account представляет счёт: банковский, карту, наличные
type Account struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ID             string    `json:"id"`        // UUID, одинаковый на всех устройствах
	Name           string    `json:"name"`      // название счёта
	Type           string    `json:"type"`      // checking, savings, credit_card, efectivo
	Currency       string    `json:"currency"`  // ISO 4217
	ServerID       string    `json:"server_id"` // корреляционный id на сервере
	OpeningBalance float64   `json:"opening_balance"`
	Synced         bool      `json:"synced"`
}

// Category is a spending category. ID is local; SyncID correlates devices.
type Category struct {
	CreatedAt   time.Time `json:"created_at"`
	SyncID      string    `json:"sync_id"`
	Name        string    `json:"name"`
	BudgetGroup string    `json:"budget_group"` // Necesidades, Ocio, Ahorro, Otros
	ID          int64     `json:"id"`
}

// SubCategory belongs to a Category.
type SubCategory struct {
	CreatedAt  time.Time `json:"created_at"`
	SyncID     string    `json:"sync_id"`
	Name       string    `json:"name"`
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
}

// Transaction представляет движение средств
type Transaction struct {
	OccurredAt    time.Time `json:"occurred_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ID            string    `json:"id"`
	AccountID     string    `json:"account_id"`
	RecurringID   string    `json:"recurring_id,omitempty"` // правило, породившее транзакцию
	Type          string    `json:"type"`                   // ingreso, gasto, transferencia
	Currency      string    `json:"currency"`
	Merchant      string    `json:"merchant,omitempty"`
	Note          string    `json:"note,omitempty"`
	ServerID      string    `json:"server_id,omitempty"`
	Tags          []string  `json:"tags"`           // имена тегов в порядке добавления
	CategoryID    int64     `json:"category_id"`    // локальный id категории
	SubCategoryID int64     `json:"subcategory_id"` // 0 - без подкатегории
	Amount        float64   `json:"amount"`
	Synced        bool      `json:"synced"`
}

// Budget is a monthly limit for one category.
type Budget struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ID         string    `json:"id"`
	Month      string    `json:"month"` // YYYY-MM
	ServerID   string    `json:"server_id,omitempty"`
	CategoryID int64     `json:"category_id"`
	Amount     float64   `json:"amount"`
	Synced     bool      `json:"synced"`
}

// Частоты повторяющихся транзакций
const (
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyAnnual  = "annual"
)

// RecurringRule describes a transaction that repeats on a schedule.
// Frequency is "weekly", "monthly", "monthly:N" or "annual".
type RecurringRule struct {
	StartDate     time.Time  `json:"start_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	NextRun       *time.Time `json:"next_run,omitempty"`
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Currency      string     `json:"currency"`
	AccountID     string     `json:"account_id"`
	Frequency     string     `json:"frequency"`
	ServerID      string     `json:"server_id,omitempty"`
	CategoryID    int64      `json:"category_id"`
	SubCategoryID int64      `json:"subcategory_id"`
	Amount        float64    `json:"amount"`
	AutoGenerate  bool       `json:"auto_generate"`
	Synced        bool       `json:"synced"`
}

// Alert представляет уведомление о бюджете, аномалии или дубликате
type Alert struct {
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
	ID            string     `json:"id"`
	AlertType     string     `json:"alert_type"` // duplicate, anomaly, budget, recurring, overdraft
	Severity      string     `json:"severity"`   // info, warning, critical
	Title         string     `json:"title"`
	Message       string     `json:"message,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	ActionTaken   string     `json:"action_taken,omitempty"`
	ServerID      string     `json:"server_id,omitempty"`
	CategoryID    int64      `json:"category_id"` // 0 - без категории
	IsRead        bool       `json:"is_read"`
	IsDismissed   bool       `json:"is_dismissed"`
	Synced        bool       `json:"synced"`
}

// SavingsGoal is a personal savings target.
type SavingsGoal struct {
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Icon          string     `json:"icon,omitempty"`
	ServerID      string     `json:"server_id,omitempty"`
	CategoryID    int64      `json:"category_id"`
	TargetAmount  float64    `json:"target_amount"`
	CurrentAmount float64    `json:"current_amount"`
	Achieved      bool       `json:"achieved"`
	IsActive      bool       `json:"is_active"`
	Synced        bool       `json:"synced"`
}

// ProgressPercent returns progress towards the target capped at 100.
func (g *SavingsGoal) ProgressPercent() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return min(g.CurrentAmount/g.TargetAmount*100, 100)
}
