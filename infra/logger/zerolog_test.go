package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZerologMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("PF_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("PF_ENV")) }()
	l := NewZerolog("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}
