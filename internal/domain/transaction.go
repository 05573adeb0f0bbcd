package domain

import (
	"math"
	"time"
)

// TransactionType classifies the direction of a transaction.
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionCashback TransactionType = "cashback"
	TransactionTransfer TransactionType = "transfer"
)

// Transaction represents one categorized transaction fetched for an analysis run.
// Amounts are signed as stored; expenses are interpreted through Magnitude.
// A Transaction is treated as immutable once fetched.
type Transaction struct {
	ID           string
	UserID       string
	Date         time.Time
	Amount       float64
	Type         TransactionType
	Category     string
	MerchantName string
	Description  string
	ReceiptURL   string // empty when no receipt has been attached
	Tags         []string
}

// Magnitude returns the absolute value of the transaction amount.
func (t Transaction) Magnitude() float64 {
	return math.Abs(t.Amount)
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionExpense
}

// IsIncome reports whether the transaction is income.
func (t Transaction) IsIncome() bool {
	return t.Type == TransactionIncome
}

// HasReceipt reports whether a receipt URL is attached to the transaction.
func (t Transaction) HasReceipt() bool {
	return t.ReceiptURL != ""
}
