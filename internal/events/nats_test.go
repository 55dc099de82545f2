package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subj)
	c.payloads = append(c.payloads, data)
	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

func TestNATSPublish(t *testing.T) {
	fc := &fakeConn{}
	p := newNATS(fc, "")
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	e := New(TaskToggled, "U1", "L1", "T1", at)
	require.NoError(t, p.Publish(context.Background(), e))

	require.Equal(t, []string{"todoshare.task.toggled"}, fc.subjects)
	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.Equal(t, "task.toggled", got["type"])
	assert.Equal(t, "L1", got["listId"])
	assert.Equal(t, "T1", got["taskId"])
	assert.Equal(t, "U1", got["actorId"])
	assert.NotEmpty(t, got["id"])

	require.NoError(t, p.Close())
	assert.True(t, fc.drained)
}

func TestNATSCustomPrefixAndOmittedTask(t *testing.T) {
	fc := &fakeConn{}
	p := newNATS(fc, "acme")
	require.NoError(t, p.Publish(context.Background(), New(ListCreated, "U1", "L1", "", time.Now())))

	assert.Equal(t, "acme.list.created", fc.subjects[0])
	assert.NotContains(t, string(fc.payloads[0]), "taskId")
}

func TestNATSPublishError(t *testing.T) {
	boom := errors.New("connection closed")
	p := newNATS(&fakeConn{err: boom}, "x")
	err := p.Publish(context.Background(), New(ListDeleted, "U1", "L1", "", time.Now()))
	assert.ErrorIs(t, err, boom)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_ = r.Publish(context.Background(), New(ListCreated, "U1", "L1", "", time.Now()))
	_ = r.Publish(context.Background(), New(TaskCreated, "U1", "L1", "T1", time.Now()))
	assert.Equal(t, []Type{ListCreated, TaskCreated}, r.Types())
	assert.Len(t, r.Events(), 2)
}
