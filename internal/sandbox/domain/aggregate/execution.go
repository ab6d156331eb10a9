package aggregate

import (
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
)

// ExecutionRequest is one submission: a program plus its stdin test cases.
type ExecutionRequest struct {
	ID       string
	Code     string
	Language *vo.LanguageProfile
	Inputs   []string
}

// Workspace is the directory one submission owns for its whole lifetime.
type Workspace struct {
	ID         string
	Dir        string
	SourcePath string
}

// ExecutionMessage is what one process run produced.
type ExecutionMessage struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Time     int64  `json:"time"`   // ms
	Memory   int64  `json:"memory"` // KB
	TimedOut bool   `json:"timed_out"`
	// OOMKilled is set when the container's memory ceiling killed the process.
	OOMKilled bool `json:"oom_killed"`
}

type JudgeInfo struct {
	Time    int64  `json:"time"`
	Memory  int64  `json:"memory"`
	Message string `json:"message"`
}

// NewJudgeInfo reduces per-case records to their maxima.
func NewJudgeInfo(msgs []*ExecutionMessage, message string) JudgeInfo {
	info := JudgeInfo{Message: message}
	for _, m := range msgs {
		if m == nil {
			continue
		}
		info.Time = max(info.Time, m.Time)
		info.Memory = max(info.Memory, m.Memory)
	}
	return info
}

type ExecutionResponse struct {
	Outputs   []string   `json:"outputs"`
	Status    vo.Status  `json:"-"`
	Verdict   vo.Verdict `json:"verdict"`
	Message   string     `json:"message"`
	JudgeInfo JudgeInfo  `json:"judge_info"`
}

// NewFailedResponse builds the terminal response for a failure verdict.
func NewFailedResponse(verdict vo.Verdict, detail string, msgs []*ExecutionMessage) *ExecutionResponse {
	return &ExecutionResponse{
		Status:    vo.Failed,
		Verdict:   verdict,
		Message:   verdict.String(),
		JudgeInfo: NewJudgeInfo(msgs, detail),
	}
}

// NewCollectedResponse aggregates a run where every case exited normally.
// The status is SUCCESS only when there is one output per input.
func NewCollectedResponse(inputs int, msgs []*ExecutionMessage) *ExecutionResponse {
	outputs := make([]string, 0, len(msgs))
	for _, m := range msgs {
		outputs = append(outputs, m.Stdout)
	}
	status := vo.Success
	if len(outputs) != inputs {
		status = vo.PartialCollected
	}
	return &ExecutionResponse{
		Outputs:   outputs,
		Status:    status,
		Verdict:   vo.Accepted,
		Message:   status.GetMsg(),
		JudgeInfo: NewJudgeInfo(msgs, vo.Accepted.String()),
	}
}
