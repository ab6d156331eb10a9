package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
)

func TestNewJudgeInfoTakesMaxima(t *testing.T) {
	info := NewJudgeInfo([]*ExecutionMessage{
		{Time: 12, Memory: 300},
		nil,
		{Time: 40, Memory: 100},
		{Time: 7, Memory: 900},
	}, "ok")
	assert.Equal(t, JudgeInfo{Time: 40, Memory: 900, Message: "ok"}, info)
	assert.Equal(t, JudgeInfo{}, NewJudgeInfo(nil, ""))
}

func TestNewCollectedResponse(t *testing.T) {
	msgs := []*ExecutionMessage{{Stdout: "3", Time: 5}, {Stdout: "7", Time: 9}}

	resp := NewCollectedResponse(2, msgs)
	assert.Equal(t, []string{"3", "7"}, resp.Outputs)
	assert.Equal(t, vo.Success, resp.Status)
	assert.Equal(t, vo.Accepted, resp.Verdict)
	assert.Equal(t, int64(9), resp.JudgeInfo.Time)

	resp = NewCollectedResponse(3, msgs)
	assert.Equal(t, vo.PartialCollected, resp.Status)
}

func TestNewCollectedResponseEmpty(t *testing.T) {
	resp := NewCollectedResponse(0, nil)
	require.NotNil(t, resp.Outputs)
	assert.Empty(t, resp.Outputs)
	assert.Equal(t, vo.Success, resp.Status)
	assert.Zero(t, resp.JudgeInfo.Time)
}

func TestNewFailedResponse(t *testing.T) {
	resp := NewFailedResponse(vo.TimeLimitExceeded, "ran for 5003 ms", []*ExecutionMessage{{Time: 5003, TimedOut: true}})
	assert.Nil(t, resp.Outputs)
	assert.Equal(t, vo.Failed, resp.Status)
	assert.Equal(t, "TimeLimitExceeded", resp.Message)
	assert.Equal(t, int64(5003), resp.JudgeInfo.Time)
	assert.Equal(t, "ran for 5003 ms", resp.JudgeInfo.Message)
}
