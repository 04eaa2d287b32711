package observability

import "testing"

func TestStdLoggerDoesNotPanic(t *testing.T) {
	l := NewStdLogger()
	l.Infof("hello %s", "world")
	l.Warnf("warn %d", 1)
	l.Errorf("err %v", "x")
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Infof("ignored")
	l.Warnf("ignored")
	l.Errorf("ignored")
}
