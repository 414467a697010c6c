package requestdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "requests")
	_, err := New(dir)
	assert.NoError(t, err)

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0777), info.Mode().Perm())
}

func TestConsumeReadsAndRemoves(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	assert.NoError(t, err)

	path := filepath.Join(dir, "req1.json")
	payload := `{"username": "kid", "minutes": 30, "reason": "homework done"}`
	assert.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	requests := s.Consume()
	assert.Len(t, requests, 1)
	assert.Equal(t, "kid", requests[0].Username)
	assert.Equal(t, 30, requests[0].Minutes)
	assert.Equal(t, "homework done", requests[0].Reason)

	// consumed exactly once
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, s.Consume())
}

func TestConsumeDefaultsMinutes(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	assert.NoError(t, err)

	path := filepath.Join(dir, "req.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"username": "kid"}`), 0644))

	requests := s.Consume()
	assert.Len(t, requests, 1)
	assert.Equal(t, defaultMinutes, requests[0].Minutes)
}

func TestConsumeDropsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	assert.NoError(t, err)

	bad := filepath.Join(dir, "bad.json")
	assert.NoError(t, os.WriteFile(bad, []byte("{nope"), 0644))
	anonymous := filepath.Join(dir, "anon.json")
	assert.NoError(t, os.WriteFile(anonymous, []byte(`{"minutes": 30}`), 0644))
	good := filepath.Join(dir, "good.json")
	assert.NoError(t, os.WriteFile(good, []byte(`{"username": "kid", "minutes": 5}`), 0644))

	requests := s.Consume()
	assert.Len(t, requests, 1)
	assert.Equal(t, "kid", requests[0].Username)

	// malformed files are removed, not retried forever
	_, err = os.Stat(bad)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(anonymous)
	assert.True(t, os.IsNotExist(err))
}

func TestConsumeIgnoresNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	assert.NoError(t, err)

	other := filepath.Join(dir, "notes.txt")
	assert.NoError(t, os.WriteFile(other, []byte("hello"), 0644))

	assert.Empty(t, s.Consume())
	_, err = os.Stat(other)
	assert.NoError(t, err)
}
