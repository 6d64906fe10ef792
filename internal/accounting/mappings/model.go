package mappings

import "time"

// Role identifies a ledger account role used by posting logic.
type Role string

const (
	RoleAccountsReceivable  Role = "ACCOUNTS_RECEIVABLE"
	RoleAccountsPayable     Role = "ACCOUNTS_PAYABLE"
	RoleOverpaymentClearing Role = "OVERPAYMENT_CLEARING"
	RoleOtherIncome         Role = "OTHER_INCOME"
	RoleOtherExpense        Role = "OTHER_EXPENSE"
)

// AccountMapping links a posting role to a ledger account.
type AccountMapping struct {
	Role      Role
	AccountID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
