package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestEpochMillisRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 123_000_000, time.UTC)
	ms := EpochMillis(at)
	assert.Equal(t, int64(1709294400123), ms)
	assert.True(t, FromEpochMillis(ms).Equal(at))
}

func TestOrReal(t *testing.T) {
	fake := clockwork.NewFakeClock()
	assert.Same(t, fake, OrReal(fake))
	assert.NotNil(t, OrReal(nil))
}
