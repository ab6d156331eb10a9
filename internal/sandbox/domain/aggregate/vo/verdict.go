package vo

// Verdict classifies how a submission ended.
type Verdict string

const (
	Accepted            Verdict = "Accepted"
	DangerousOperation  Verdict = "DangerousOperation"
	CompileError        Verdict = "CompileError"
	RuntimeError        Verdict = "RuntimeError"
	TimeLimitExceeded   Verdict = "TimeLimitExceeded"
	MemoryLimitExceeded Verdict = "MemoryLimitExceeded"
	InternalError       Verdict = "InternalError"
)

func (v Verdict) String() string {
	return string(v)
}

// Failed reports whether v is a terminal failure classification.
func (v Verdict) Failed() bool {
	return v != Accepted && v != ""
}
