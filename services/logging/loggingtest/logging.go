package loggingtest

import (
	"log"
	"os"

	"github.com/influxdata/wlog"
)

func init() {
	wlog.SetLevel(wlog.DEBUG)
}

type TestLogService struct {
	prefix string
}

func New() TestLogService {
	return TestLogService{}
}

func NewWithPrefix(prefix string) TestLogService {
	return TestLogService{
		prefix: prefix,
	}
}

func (l TestLogService) NewLogger(prefix string, flag int) *log.Logger {
	return wlog.New(os.Stderr, l.prefix+prefix, flag)
}

func (l TestLogService) NewRawLogger(prefix string, flag int) *log.Logger {
	return log.New(os.Stderr, l.prefix+prefix, flag)
}
