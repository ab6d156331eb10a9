package sid

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/sony/sonyflake"
)

type Sid struct {
	sf *sonyflake.Sonyflake
}

func NewSid() *Sid {
	st := sonyflake.Settings{
		StartTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	sf := sonyflake.NewSonyflake(st)
	if sf == nil {
		// no private IPv4 to derive a machine id from, e.g. inside a network-less container
		st.MachineID = func() (uint16, error) { return uint16(os.Getpid()), nil }
		sf = sonyflake.NewSonyflake(st)
	}
	if sf == nil {
		panic("sonyflake not created")
	}
	return &Sid{sf}
}

func (s Sid) GenString() (string, error) {
	id, err := s.GenUint64()
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(id, 36), nil
}

func (s Sid) GenUint64() (uint64, error) {
	if s.sf == nil {
		return 0, errors.New("[Sid.GenUint64]sonyflake not initialized")
	}
	return s.sf.NextID()
}
