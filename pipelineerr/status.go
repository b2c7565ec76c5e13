package pipelineerr

// Status tags a stage result that may have fallen back to a placeholder.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

func (s Status) Degraded() bool { return s == StatusDegraded }
