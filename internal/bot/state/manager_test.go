package state

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func managers(t *testing.T) map[string]StateManager {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return map[string]StateManager{
		"memory": NewManager(),
		"redis":  NewRedisManager(client, "test:", time.Hour),
	}
}

func TestUserState(t *testing.T) {
	for name, m := range managers(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, None, m.GetUserState(42))

			m.SetUserState(42, WaitingForCheckIn)
			assert.Equal(t, WaitingForCheckIn, m.GetUserState(42))
			assert.Equal(t, None, m.GetUserState(7))

			m.ClearUserState(42)
			assert.Equal(t, None, m.GetUserState(42))
		})
	}
}

func TestTempData(t *testing.T) {
	for name, m := range managers(t) {
		t.Run(name, func(t *testing.T) {
			m.SetTempData(42, KeyCheckInKind, "Blood Sugar")
			m.SetTempData(42, KeyMindfulSession, "s-1")

			v, ok := m.GetTempData(42, KeyCheckInKind)
			assert.True(t, ok)
			assert.Equal(t, "Blood Sugar", v)

			m.ClearTempData(42, KeyCheckInKind)
			_, ok = m.GetTempData(42, KeyCheckInKind)
			assert.False(t, ok)
			v, ok = m.GetTempData(42, KeyMindfulSession)
			assert.True(t, ok)
			assert.Equal(t, "s-1", v)

			m.ClearTempData(42)
			_, ok = m.GetTempData(42, KeyMindfulSession)
			assert.False(t, ok)
		})
	}
}

func TestRedisStateExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	m := NewRedisManager(client, "", time.Minute)
	m.SetUserState(1, Mindful)
	mr.FastForward(2 * time.Minute)
	assert.Equal(t, None, m.GetUserState(1))
}
