// sensor_barometer_test.go - Unit tests for the barometer driver

package main

import "testing"

// testCal gives powers of two so the compensation pipeline has exact
// expected values: with dT = 0, SENS = 2^30 and OFF = 2^31.
var testCal = BarometerCal{
	Sens:     32768,
	Off:      32768,
	Tcs:      1000,
	Tco:      1000,
	TRef:     31553,
	TempSens: 32768,
}

// newBaroRig wires a device model onto a fresh board's I2C bus and
// returns the driver, the device and the board.
func newBaroRig(t *testing.T, d1, d2 uint32) (*Barometer, *BarometerDevice, *Board, func()) {
	t.Helper()
	board := newManualBoard()
	stopTick := startTicking(t, board)
	if errc := board.I2C().Init(&I2CConfig{}); errc != ERRC_NONE {
		t.Fatalf("i2c Init errc = %v", errc)
	}
	device := NewBarometerDevice(testCal, d1, d2)
	board.I2C().AttachDevice(BARO_I2C_ADDR, device)
	baro := NewBarometer(board.Core(CORE_CM7), board.I2C(), OSR_256)
	return baro, device, board, stopTick
}

// TestBarometer_InitReadsProm verifies reset plus the six calibration
// words.
func TestBarometer_InitReadsProm(t *testing.T) {
	baro, _, _, stop := newBaroRig(t, 0, 0)
	defer stop()

	if errc := baro.Init(); errc != ERRC_NONE {
		t.Fatalf("Init errc = %v", errc)
	}
	if baro.Cal() != testCal {
		t.Errorf("Cal() = %+v, want %+v", baro.Cal(), testCal)
	}
}

// TestBarometer_SampleReferencePoint uses dT = 0 inputs for exact
// results: 20.00 C and 655.36 mbar.
func TestBarometer_SampleReferencePoint(t *testing.T) {
	d2 := uint32(testCal.TRef) << 8 // dT = 0
	baro, _, _, stop := newBaroRig(t, 8388608, d2)
	defer stop()

	if errc := baro.Init(); errc != ERRC_NONE {
		t.Fatalf("Init errc = %v", errc)
	}
	sample, errc := baro.Sample()
	if errc != ERRC_NONE {
		t.Fatalf("Sample errc = %v", errc)
	}
	if sample.Temperature != 2000 {
		t.Errorf("Temperature = %d, want 2000", sample.Temperature)
	}
	if sample.Pressure != 65536 {
		t.Errorf("Pressure = %d, want 65536", sample.Pressure)
	}
}

// TestBarometer_SecondOrderCompensation drives the temperature below
// 20 C to take the second-order branch. With dT = -256 and C6 = 32768
// the uncompensated temperature is 1999, and with C3 = C4 = 0 the
// corrections are OFF2 = 2 and SENS2 = 1.
func TestBarometer_SecondOrderCompensation(t *testing.T) {
	cal := BarometerCal{Sens: 32768, Off: 32768, Tcs: 0, Tco: 0, TRef: 31553, TempSens: 32768}
	temp, pressure := compensate(cal, 8388608, uint32(cal.TRef)<<8-256)
	if temp != 1999 {
		t.Errorf("temperature = %d, want 1999", temp)
	}
	if pressure != 65535 {
		t.Errorf("pressure = %d, want 65535", pressure)
	}
}

// TestBarometer_ConversionTimes tables the OSR delay mapping and the
// invalid OSR path.
func TestBarometer_ConversionTimes(t *testing.T) {
	tests := []struct {
		name     string
		osr      BarometerOsr
		want     uint32
		wantErrc Errc
	}{
		{"osr_256", OSR_256, 1, ERRC_NONE},
		{"osr_512", OSR_512, 2, ERRC_NONE},
		{"osr_1024", OSR_1024, 3, ERRC_NONE},
		{"osr_2048", OSR_2048, 5, ERRC_NONE},
		{"osr_4096", OSR_4096, 10, ERRC_NONE},
		{"osr_invalid", BarometerOsr(0x01), 0, ERRC_INVALID_ARG},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			millis, errc := tc.osr.conversionMillis()
			if errc != tc.wantErrc {
				t.Fatalf("errc = %v, want %v", errc, tc.wantErrc)
			}
			if millis != tc.want {
				t.Errorf("conversion time = %d ms, want %d", millis, tc.want)
			}
		})
	}
}

// TestBarometer_RawUpdatesFlowThrough checks SetRaw changes the next
// sample.
func TestBarometer_RawUpdatesFlowThrough(t *testing.T) {
	d2 := uint32(testCal.TRef) << 8
	baro, device, _, stop := newBaroRig(t, 8388608, d2)
	defer stop()

	if errc := baro.Init(); errc != ERRC_NONE {
		t.Fatalf("Init errc = %v", errc)
	}
	first, errc := baro.Sample()
	if errc != ERRC_NONE {
		t.Fatalf("Sample errc = %v", errc)
	}
	device.SetRaw(8388608/2, d2)
	second, errc := baro.Sample()
	if errc != ERRC_NONE {
		t.Fatalf("Sample errc = %v", errc)
	}
	if second.Pressure >= first.Pressure {
		t.Errorf("pressure did not drop with halved D1: %d -> %d", first.Pressure, second.Pressure)
	}
}
