// kernel_time.go - Seqlock time counter, sleeps and unit conversions

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

/*
kernel_time.go - Time services for the Titan kernel

The kernel keeps a single monotonic microsecond counter shared by both
cores. The periodic tick source advances it; anyone may read it from any
context, including from inside critical and exclusive sections, because
the update runs at a priority above the critical-section mask and readers
never block.

The counter is 64 bits wide but the cores only guarantee atomicity on
32-bit words, so the value is published as two halves guarded by a
sequence word: the tick handler bumps the sequence to odd, writes both
halves, then bumps it back to even. A reader that samples an odd sequence,
or different sequences before and after its two loads, has caught the
writer mid-update and retries. The retry budget is TIME_LOCK_ATTEMPTS;
exhausting it reports ERRC_TIMEOUT.
*/

package main

import "math"

// ------------------------------------------------------------------------------
// Unit Conversion Multipliers (microseconds per unit)
// ------------------------------------------------------------------------------
const (
	TIME_MILLIS_MUL  = 1_000
	TIME_SECONDS_MUL = 1_000_000
	TIME_MINUTES_MUL = 60_000_000
	TIME_HOURS_MUL   = 3_600_000_000
	TIME_DAYS_MUL    = 86_400_000_000
)

// advanceTick is the body of the periodic tick interrupt. It adds one tick
// period to the counter and publishes the new value under the sequence
// word. It must never be blocked by a critical section on either core; the
// board runs it at a priority above the critical-section mask.
func (k *Kernel) advanceTick() {
	atomicAdd32(&k.timeSeq, 1)
	k.tickTime += TIME_USEC_PER_TICK
	atomicStore32(&k.timeLo, int32(uint32(uint64(k.tickTime))))
	atomicStore32(&k.timeHi, int32(uint32(uint64(k.tickTime)>>32)))
	atomicAdd32(&k.timeSeq, 1)
}

// Now returns the current time in microseconds. Safe from any context;
// never blocks the tick handler. Returns ERRC_TIMEOUT (and -1) if the
// seqlock read cannot complete within the configured attempt budget.
func (k *Kernel) Now() (int64, Errc) {
	for attempt := 0; attempt <= TIME_LOCK_ATTEMPTS; attempt++ {
		seqStart := atomicLoad32(&k.timeSeq)
		lo := atomicLoad32(&k.timeLo)
		hi := atomicLoad32(&k.timeHi)
		seqEnd := atomicLoad32(&k.timeSeq)
		if seqStart == seqEnd && seqStart&1 == 0 {
			return int64(uint64(uint32(hi))<<32 | uint64(uint32(lo))), ERRC_NONE
		}
	}
	return -1, ERRC_TIMEOUT
}

// Sleep blocks the calling thread for at least the given number of
// microseconds, yielding to the cooperative scheduler between time
// samples. Not for use from interrupt context.
func (c *Core) Sleep(duration int64) Errc {
	if duration < 0 {
		return ERRC_INVALID_ARG
	}
	start, errc := c.kernel.Now()
	if errc != ERRC_NONE {
		return ERRC_INTERNAL
	}
	for {
		now, errc := c.kernel.Now()
		if errc != ERRC_NONE {
			return ERRC_INTERNAL
		}
		if now-start >= duration {
			return ERRC_NONE
		}
		c.Yield()
	}
}

// SleepUntil blocks the calling thread until the given time, yielding to
// the cooperative scheduler between time samples. A negative deadline is
// ERRC_INVALID_ARG; a deadline already in the past is ERRC_INVALID_STATE.
func (c *Core) SleepUntil(deadline int64) Errc {
	if deadline < 0 {
		return ERRC_INVALID_ARG
	}
	current, errc := c.kernel.Now()
	if errc != ERRC_NONE {
		return ERRC_INTERNAL
	}
	if deadline < current {
		return ERRC_INVALID_STATE
	}
	for {
		now, errc := c.kernel.Now()
		if errc != ERRC_NONE {
			return ERRC_INTERNAL
		}
		if now >= deadline {
			return ERRC_NONE
		}
		c.Yield()
	}
}

// mulTime64 multiplies a non-negative unit count by a positive microsecond
// multiplier, detecting signed 64-bit overflow.
func mulTime64(value, mul int64) (int64, bool) {
	if value == 0 {
		return 0, false
	}
	if value > math.MaxInt64/mul {
		return -1, true
	}
	return value * mul, false
}

// timeFromUnit converts a unit count to microseconds.
func timeFromUnit(value, mul int64) (int64, Errc) {
	if value < 0 {
		return -1, ERRC_INVALID_ARG
	}
	result, overflow := mulTime64(value, mul)
	if overflow {
		return -1, ERRC_OVERFLOW
	}
	return result, ERRC_NONE
}

// timeToUnit converts microseconds to a unit count, truncating toward zero.
func timeToUnit(time, mul int64) (int64, Errc) {
	if time < 0 {
		return -1, ERRC_INVALID_ARG
	}
	return time / mul, ERRC_NONE
}

// MicrosToTime converts microseconds to kernel time. Time is denominated
// in microseconds, so this is the identity on valid input; the pair is
// kept for symmetry with the other units.
func MicrosToTime(micros int64) (int64, Errc) {
	if micros < 0 {
		return -1, ERRC_INVALID_ARG
	}
	return micros, ERRC_NONE
}

// TimeToMicros converts kernel time to microseconds (identity on valid input).
func TimeToMicros(time int64) (int64, Errc) {
	if time < 0 {
		return -1, ERRC_INVALID_ARG
	}
	return time, ERRC_NONE
}

// MillisToTime converts milliseconds to kernel time.
func MillisToTime(millis int64) (int64, Errc) { return timeFromUnit(millis, TIME_MILLIS_MUL) }

// TimeToMillis converts kernel time to whole milliseconds.
func TimeToMillis(time int64) (int64, Errc) { return timeToUnit(time, TIME_MILLIS_MUL) }

// SecondsToTime converts seconds to kernel time.
func SecondsToTime(seconds int64) (int64, Errc) { return timeFromUnit(seconds, TIME_SECONDS_MUL) }

// TimeToSeconds converts kernel time to whole seconds.
func TimeToSeconds(time int64) (int64, Errc) { return timeToUnit(time, TIME_SECONDS_MUL) }

// MinutesToTime converts minutes to kernel time.
func MinutesToTime(minutes int64) (int64, Errc) { return timeFromUnit(minutes, TIME_MINUTES_MUL) }

// TimeToMinutes converts kernel time to whole minutes.
func TimeToMinutes(time int64) (int64, Errc) { return timeToUnit(time, TIME_MINUTES_MUL) }

// HoursToTime converts hours to kernel time.
func HoursToTime(hours int64) (int64, Errc) { return timeFromUnit(hours, TIME_HOURS_MUL) }

// TimeToHours converts kernel time to whole hours.
func TimeToHours(time int64) (int64, Errc) { return timeToUnit(time, TIME_HOURS_MUL) }

// DaysToTime converts days to kernel time.
func DaysToTime(days int64) (int64, Errc) { return timeFromUnit(days, TIME_DAYS_MUL) }

// TimeToDays converts kernel time to whole days.
func TimeToDays(time int64) (int64, Errc) { return timeToUnit(time, TIME_DAYS_MUL) }
