package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStoreLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope", "state.json"))

	f, err := s.Load()
	assert.NoError(t, err)
	assert.NotNil(t, f.Users)
	assert.Empty(t, f.Users)
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "kidlock", "state.json"))

	pausedAt := time.Date(2024, 6, 3, 15, 4, 5, 0, time.UTC)
	in := &File{
		Version: 1,
		Users: map[string]*UserState{
			"kid": {
				UsageMinutes:  95,
				LastUsageDate: "2024-06-03",
				Blocked:       true,
				BlockReason:   "Daily time limit reached",
				Paused:        true,
				PausedAt:      &pausedAt,
				BonusMinutes:  15,
				WarningsSent:  NewIntSet(10, 5),
				PendingRequest: &TimeRequest{
					ID:        "a1b2c3d4",
					Minutes:   30,
					Reason:    "homework done",
					CreatedAt: pausedAt,
				},
				IsIdle: true,
			},
		},
	}
	assert.NoError(t, s.Save(in))

	out, err := s.Load()
	assert.NoError(t, err)
	u := out.Users["kid"]
	assert.Equal(t, 95, u.UsageMinutes)
	assert.Equal(t, "2024-06-03", u.LastUsageDate)
	assert.True(t, u.Blocked)
	assert.Equal(t, "Daily time limit reached", u.BlockReason)
	assert.True(t, u.Paused)
	assert.True(t, pausedAt.Equal(*u.PausedAt))
	assert.Equal(t, 15, u.BonusMinutes)
	assert.True(t, u.WarningsSent.Has(10))
	assert.True(t, u.WarningsSent.Has(5))
	assert.False(t, u.WarningsSent.Has(1))
	assert.Equal(t, "a1b2c3d4", u.PendingRequest.ID)
	assert.Equal(t, 30, u.PendingRequest.Minutes)

	// runtime-only field is never written to disk
	assert.False(t, u.IsIdle)
}

func TestStoreLoadDefaultsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	raw := `{"users": {"kid": {"usage_minutes": 12}}, "version": 1}`
	assert.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	f, err := NewStore(path).Load()
	assert.NoError(t, err)
	u := f.Users["kid"]
	assert.Equal(t, 12, u.UsageMinutes)
	assert.False(t, u.Blocked)
	assert.False(t, u.Paused)
	assert.Nil(t, u.PausedAt)
	assert.Nil(t, u.PendingRequest)
	assert.NotNil(t, u.WarningsSent)
	assert.False(t, u.WarningsSent.Has(10))
}

func TestStoreSaveAtomic(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))
	assert.NoError(t, s.Save(&File{Users: map[string]*UserState{}, Version: 1}))

	// no temp file left behind
	_, err := os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestIntSetMarshalSorted(t *testing.T) {
	set := NewIntSet(10, 1, 5)
	data, err := json.Marshal(set)
	assert.NoError(t, err)
	assert.Equal(t, "[1,5,10]", string(data))
}

func TestIntSetUnmarshalDeduplicates(t *testing.T) {
	var set IntSet
	assert.NoError(t, json.Unmarshal([]byte("[5,5,10]"), &set))
	assert.Len(t, set, 2)
	assert.True(t, set.Has(5))
	assert.True(t, set.Has(10))
}

func TestIntSetAddHas(t *testing.T) {
	set := NewIntSet()
	assert.False(t, set.Has(10))
	set.Add(10)
	assert.True(t, set.Has(10))
}
