package v1

type ExecuteRequest struct {
	Code     string   `json:"code,required" vd:"len($)>0"`
	Language string   `json:"language,required" vd:"len($)>0"`
	Inputs   []string `json:"inputs"`
}

type JudgeInfo struct {
	Time    int64  `json:"time"`   // ms
	Memory  int64  `json:"memory"` // KB
	Message string `json:"message"`
}

type ExecuteResponseBody struct {
	// Outputs is null unless every test case exited normally.
	Outputs []string `json:"outputs"`
	// Status is 1 for partially collected, 2 for complete and 3 for failed.
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	JudgeInfo JudgeInfo `json:"judgeInfo"`
}

type ExecuteResponse struct {
	Response
	ExecuteResponseBody `json:"data"`
}
