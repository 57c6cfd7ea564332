package ports

type ActionMetrics interface {
	RecordSuccess(operation string)
	RecordRejected(code string)
	RecordConflict()
	RecordFailure()
	RecordRepetitions(n int)
}
