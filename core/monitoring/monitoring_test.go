package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	errs    []error
	tags    []map[string]string
	flushed int
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Flush(time.Duration) { r.flushed++ }

func TestCaptureForwardsToInstalledMonitor(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	defer Init(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("db locked"), map[string]string{"op": "apply decision"})
	require.Len(t, rec.errs, 1)
	assert.Equal(t, "apply decision", rec.tags[0]["op"])

	Flush(time.Second)
	assert.Equal(t, 1, rec.flushed)
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	defer Init(nil)

	assert.PanicsWithValue(t, "boom", func() {
		defer Recover()
		panic("boom")
	})
	require.Len(t, rec.errs, 1)
	assert.EqualError(t, rec.errs[0], "panic: boom")
	assert.Equal(t, 1, rec.flushed)
}
