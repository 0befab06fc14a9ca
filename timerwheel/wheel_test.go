package timerwheel

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockWheel() *Wheel[Delay] {
	w := New[Delay]()
	w.AppendWheel(12, 3600, "hour")
	w.AppendWheel(60, 60, "minute")
	w.AppendWheel(60, 1, "second")
	return w
}

// The clock-face walkthrough: adds, a delete, and three advances whose
// results are fully determined by due order.
func TestWheel_ClockFaceScenario(t *testing.T) {
	t.Parallel()

	w := newClockWheel()
	w.AddTimer(Delay(30))
	w.AddTimer(Delay(149))
	id600 := w.AddTimer(Delay(600))
	w.AddTimer(Delay(1))
	assert.Equal(t, uint64(1), w.NextDelay())

	v, ok := w.DelTimer(id600)
	require.True(t, ok)
	assert.Equal(t, Delay(600), v)
	_, ok = w.DelTimer(id600)
	assert.False(t, ok)

	w.AddTimer(Delay(150))

	assert.Equal(t, []Delay{1, 30}, w.Advance(30))
	w.AddTimer(Delay(2))
	assert.Equal(t, []Delay{2, 149}, w.Advance(119))
	assert.Equal(t, []Delay{150}, w.Advance(1))
	assert.True(t, w.IsEmpty())
}

// Property: the multiset of expired values over advances summing to >= delay
// equals the multiset added with that delay.
func TestWheel_AllTimersExpireOnce(t *testing.T) {
	t.Parallel()

	w := newClockWheel()
	r := rand.New(rand.NewSource(42))

	var want []int
	for i := 0; i < 500; i++ {
		d := 1 + r.Intn(50_000) // spans all three rings and the parked zone
		want = append(want, d)
		w.AddTimer(Delay(d))
	}

	var got []int
	for !w.IsEmpty() {
		for _, v := range w.Advance(uint64(1 + r.Intn(700))) {
			got = append(got, int(v))
		}
	}

	sort.Ints(want)
	sort.Ints(got)
	assert.Equal(t, want, got)
}

// A timer never expires before its due tick and expires exactly when the
// cumulative advance reaches it.
func TestWheel_FiresAtExactTick(t *testing.T) {
	t.Parallel()

	for _, d := range []uint64{1, 59, 60, 61, 119, 120, 3599, 3600, 3601, 43199, 43200, 50_000} {
		w := newClockWheel()
		w.AddTimer(Delay(d))

		require.Empty(t, w.Advance(d-1), "delay %d fired early", d)
		got := w.Advance(1)
		require.Equal(t, []Delay{Delay(d)}, got, "delay %d", d)
		require.True(t, w.IsEmpty())
	}
}

func TestWheel_TiesExpireInRegistrationOrder(t *testing.T) {
	t.Parallel()

	w := newClockWheel()
	w.AddTimer(Delay(10))
	w.AddTimer(Delay(10))
	w.AddTimer(Delay(5))
	got := w.Advance(10)
	assert.Equal(t, []Delay{5, 10, 10}, got)
}

func TestWheel_NextDelayTracksNearest(t *testing.T) {
	t.Parallel()

	w := newClockWheel()
	assert.Equal(t, uint64(0), w.NextDelay())

	w.AddTimer(Delay(100))
	assert.Equal(t, uint64(100), w.NextDelay())
	id := w.AddTimer(Delay(7))
	assert.Equal(t, uint64(7), w.NextDelay())

	w.DelTimer(id)
	assert.Equal(t, uint64(100), w.NextDelay())

	w.Advance(40)
	assert.Equal(t, uint64(60), w.NextDelay())
}

func TestWheel_ZeroDelayClampsToOneTick(t *testing.T) {
	t.Parallel()

	w := newClockWheel()
	w.AddTimer(Delay(0))
	assert.Empty(t, w.Advance(0))
	assert.Equal(t, []Delay{0}, w.Advance(1))
}

func TestWheel_ContractViolationsPanic(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New[Delay]().AddTimer(Delay(1)) })

	w := newClockWheel()
	w.AddTimer(Delay(1))
	assert.Panics(t, func() { w.AppendWheel(10, 1, "late") })

	assert.Panics(t, func() { New[Delay]().AppendWheel(0, 1, "bad") })
}

func TestWheel_Clear(t *testing.T) {
	t.Parallel()

	w := newClockWheel()
	w.AddTimer(Delay(5))
	w.AddTimer(Delay(500))
	w.Clear()
	assert.True(t, w.IsEmpty())
	assert.Empty(t, w.Advance(1000))
}
