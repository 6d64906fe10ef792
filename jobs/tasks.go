package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity verifies that every posted entry balances.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskBankDivergence compares stored and calculated bank balances.
	TaskBankDivergence = "banks:divergence"
)

// NewLedgerIntegrityTask constructs the integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewBankDivergenceTask constructs the divergence scan task.
func NewBankDivergenceTask() *asynq.Task {
	return asynq.NewTask(TaskBankDivergence, nil)
}
