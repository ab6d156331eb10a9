package vo

// Status is the overall outcome code of one submission.
type Status struct {
	statusCode byte
	statusMsg  string
}

var (
	Pending          = newStatus(0, "PENDING")
	PartialCollected = newStatus(1, "PARTIAL_COLLECTED")
	Success          = newStatus(2, "SUCCESS")
	Failed           = newStatus(3, "FAILED")
)

func newStatus(code byte, msg string) Status {
	return Status{
		statusCode: code,
		statusMsg:  msg,
	}
}

func (s Status) GetCode() byte {
	return s.statusCode
}

func (s Status) GetMsg() string {
	return s.statusMsg
}

func (s Status) String() string {
	return s.statusMsg
}
