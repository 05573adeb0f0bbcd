package domain

import "time"

// AccountType is the kind of a financial account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
	AccountInvestment AccountType = "investment"
	AccountLoan       AccountType = "loan"
)

// Account is a user's account with its current signed balance.
type Account struct {
	ID      string
	UserID  string
	Name    string
	Balance float64
	Type    AccountType
}

// Budget is a spending budget for a period.
type Budget struct {
	ID       string
	UserID   string
	Name     string
	Amount   float64
	Spent    float64
	Period   string
	IsActive bool
}

// FinancialGoal is a savings target with a deadline.
type FinancialGoal struct {
	ID            string
	UserID        string
	Name          string
	TargetAmount  float64
	CurrentAmount float64
	TargetDate    time.Time
	CreatedAt     time.Time
}

// TaxDocument is a document filed for a tax year. A document linked to a
// transaction counts as that transaction's receipt reference.
type TaxDocument struct {
	ID                    string
	UserID                string
	Year                  int
	DocumentType          string
	URI                   string
	UploadedAt            time.Time
	RelatedTransactionIDs []string
}
