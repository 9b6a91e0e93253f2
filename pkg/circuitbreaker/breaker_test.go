package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreaker_PassesResults(t *testing.T) {
	b := New[int](Settings{Name: "test"})

	v, err := b.Execute(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = b.Execute(func() (int, error) { return 0, errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	b := New[string](Settings{
		Name:                "test",
		ConsecutiveFailures: 2,
		Timeout:             time.Minute,
		OnStateChange: func(_ string, from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})

	for i := 0; i < 2; i++ {
		_, err := b.Execute(func() (string, error) { return "", errBoom })
		require.ErrorIs(t, err, errBoom)
	}

	called := false
	_, err := b.Execute(func() (string, error) {
		called = true
		return "ok", nil
	})

	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, "open", b.State())
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreaker_IsSuccessfulErrorsDoNotTrip(t *testing.T) {
	errBusiness := errors.New("business rule")
	b := New[int](Settings{
		Name:                "test",
		ConsecutiveFailures: 1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errBusiness)
		},
	})

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (int, error) { return 0, errBusiness })
		assert.ErrorIs(t, err, errBusiness)
	}
	assert.Equal(t, "closed", b.State())
}
