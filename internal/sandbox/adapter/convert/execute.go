package convert

import (
	v1 "github.com/Wenrh2004/judge-sandbox/api/v1"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
)

func ExecuteRequestConvert(request *v1.ExecuteRequest) (*aggregate.ExecutionRequest, error) {
	l, err := vo.GetLanguageProfile(request.Language)
	if err != nil {
		return nil, err
	}
	inputs := request.Inputs
	if inputs == nil {
		inputs = []string{}
	}
	return &aggregate.ExecutionRequest{
		Code:     request.Code,
		Language: l,
		Inputs:   inputs,
	}, nil
}

func ExecuteResponseConvert(response *aggregate.ExecutionResponse) *v1.ExecuteResponseBody {
	return &v1.ExecuteResponseBody{
		Outputs: response.Outputs,
		Status:  int(response.Status.GetCode()),
		Message: response.Message,
		JudgeInfo: v1.JudgeInfo{
			Time:    response.JudgeInfo.Time,
			Memory:  response.JudgeInfo.Memory,
			Message: response.JudgeInfo.Message,
		},
	}
}
