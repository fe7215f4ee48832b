package trace

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	defer SetLogger(NewLogger())
	if code := m.Run(); code != 0 {
		panic(code)
	}
}

func setUpTest(t testing.TB, buf *bytes.Buffer) {
	t.Cleanup(func() {
		if buf != nil {
			buf.Reset()
		}
		SetTarget(0)
	})
	var w io.Writer = io.Discard
	if buf != nil {
		w = buf
	}

	l := logrus.New()
	l.Out = w
	l.Level = logrus.DebugLevel
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}
	SetLogger(l)
}

func TestEmpty(t *testing.T) {
	var buf bytes.Buffer
	setUpTest(t, &buf)
	General.Print("test")
	assert.Empty(t, buf.String())
}

func TestOneTarget(t *testing.T) {
	var buf bytes.Buffer
	setUpTest(t, &buf)
	SetTarget(General)
	General.Print("test")
	assert.Equal(t, "level=debug msg=test target=general\n", buf.String())
}

func TestMultipleTargets(t *testing.T) {
	var buf bytes.Buffer
	setUpTest(t, &buf)
	SetTarget(Revlog | NodeMap)
	Revlog.Print("a")
	NodeMap.Print("b")
	assert.Equal(t, "level=debug msg=a target=revlog\nlevel=debug msg=b target=nodemap\n", buf.String())
}

func TestPrintf(t *testing.T) {
	var buf bytes.Buffer
	setUpTest(t, &buf)
	SetTarget(General)
	General.Printf("rev %d", 1)
	assert.Equal(t, "level=debug msg=\"rev 1\" target=general\n", buf.String())
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	setUpTest(t, &buf)
	SetTarget(Performance)
	Performance.WithFields(logrus.Fields{"revs": 3}, "loaded")
	assert.Equal(t, "level=debug msg=loaded revs=3 target=performance\n", buf.String())
}

func TestDisabledMultipleTargets(t *testing.T) {
	var buf bytes.Buffer
	setUpTest(t, &buf)
	SetTarget(General)
	General.Print("a")
	Revlog.Print("b")
	assert.Equal(t, "level=debug msg=a target=general\n", buf.String())
	assert.True(t, Enabled(General|Revlog))
	assert.False(t, Enabled(Revlog))
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "nodemap", NodeMap.String())
	assert.Equal(t, "target(3)", (General | Revlog).String())
}

func BenchmarkDisabledTarget(b *testing.B) {
	setUpTest(b, nil)
	for i := 0; i < b.N; i++ {
		General.Print("test")
	}
}

func BenchmarkEnabledTarget(b *testing.B) {
	setUpTest(b, nil)
	SetTarget(General)
	for i := 0; i < b.N; i++ {
		General.Print("test")
	}
}
