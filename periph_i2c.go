// periph_i2c.go - I2C controller emulation and master driver

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

/*
periph_i2c.go - I2C master

The controller emulates a single I2C peripheral with devices attached by
7-bit address. The driver on top of it mirrors the Titan peripheral API:
validated Init, blocking reads and writes, and asynchronous transfers
that complete through a callback. The controller is engaged by exactly
one transfer at a time; a second transfer started while one is in flight
is refused with ERRC_BUSY rather than queued. A transfer addressed to a
device that never acknowledges reports ERRC_TIMEOUT.
*/

package main

import (
	"sync"
	"time"
)

// ------------------------------------------------------------------------------
// I2C Register Offsets (mapped at I2C1_BASE)
// ------------------------------------------------------------------------------
const (
	I2C_CR1_OFFSET     = 0x00
	I2C_TIMINGR_OFFSET = 0x10
	I2C_ISR_OFFSET     = 0x18

	I2C_CR1_PE   = 1 << 0 // Peripheral enable
	I2C_ISR_BUSY = 1 << 15

	I2C_MAX_DIGITAL_FILTER = 15
	I2C_MAX_PIN            = 15

	// Emulated bus time per transferred byte. Stands in for the SCL
	// clocking the DMA engine would spend on the real part.
	i2cByteTime = 100 * time.Microsecond
)

// I2CDevice is a peripheral attached to the bus by address.
type I2CDevice interface {
	// WriteBytes handles a master write addressed to the device.
	WriteBytes(data []byte)
	// ReadBytes fills buf with the device's response to a master read.
	ReadBytes(buf []byte)
}

// I2CConfig configures the controller before use.
type I2CConfig struct {
	Timing        int32 // TIMINGR value; opaque to the emulation
	DigitalFilter uint8 // 0..15
	SCLPin        uint8 // 0..15
	SDAPin        uint8 // 0..15
	Timeout       int64 // Microseconds; checked to be non-negative and stored, not consulted by transfers
}

// I2CCallback reports asynchronous transfer completion.
type I2CCallback func(success bool)

type I2CController struct {
	mu         sync.Mutex
	devices    map[uint16]I2CDevice
	config     I2CConfig
	configured bool
	enabled    bool
	busy       int32
}

// NewI2CController creates the controller and maps its register file.
func NewI2CController(bus *SystemBus) *I2CController {
	i := &I2CController{devices: make(map[uint16]I2CDevice)}
	_ = bus.MapIO(I2C1_BASE, I2C1_BASE+0x2C, func(addr uint32) uint32 {
		return i.readRegister(addr - I2C1_BASE)
	}, func(addr uint32, value uint32) {
		i.writeRegister(addr-I2C1_BASE, value)
	})
	return i
}

func (i *I2CController) readRegister(offset uint32) uint32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch offset {
	case I2C_CR1_OFFSET:
		if i.enabled {
			return I2C_CR1_PE
		}
		return 0
	case I2C_TIMINGR_OFFSET:
		return uint32(i.config.Timing)
	case I2C_ISR_OFFSET:
		if atomicLoad32(&i.busy) != 0 {
			return I2C_ISR_BUSY
		}
		return 0
	}
	return 0
}

func (i *I2CController) writeRegister(offset uint32, value uint32) {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch offset {
	case I2C_CR1_OFFSET:
		i.enabled = value&I2C_CR1_PE != 0
	case I2C_TIMINGR_OFFSET:
		i.config.Timing = int32(value)
	}
}

// AttachDevice connects a device at the given 7-bit address.
func (i *I2CController) AttachDevice(addr uint16, dev I2CDevice) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.devices[addr] = dev
}

func (i *I2CController) device(addr uint16) I2CDevice {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.devices[addr]
}

func checkI2CConfig(config *I2CConfig) Errc {
	if config == nil {
		return ERRC_INVALID_ARG
	}
	if config.DigitalFilter > I2C_MAX_DIGITAL_FILTER {
		return ERRC_INVALID_ARG
	}
	if config.SCLPin > I2C_MAX_PIN || config.SDAPin > I2C_MAX_PIN {
		return ERRC_INVALID_ARG
	}
	if config.Timeout < 0 {
		return ERRC_INVALID_ARG
	}
	return ERRC_NONE
}

func checkI2CTransfer(data []byte) Errc {
	if data == nil {
		return ERRC_INVALID_ARG
	}
	if len(data) == 0 {
		return ERRC_INVALID_ARG
	}
	return ERRC_NONE
}

// Init validates and applies the configuration and enables the
// controller.
func (i *I2CController) Init(config *I2CConfig) Errc {
	if errc := checkI2CConfig(config); errc != ERRC_NONE {
		return errc
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.config = *config
	i.configured = true
	i.enabled = true
	return ERRC_NONE
}

// acquire engages the controller for one transfer. ERRC_INVALID_STATE
// before Init, ERRC_BUSY while another transfer is in flight.
func (i *I2CController) acquire() Errc {
	i.mu.Lock()
	configured := i.configured && i.enabled
	i.mu.Unlock()
	if !configured {
		return ERRC_INVALID_STATE
	}
	expected := int32(0)
	if !atomicCas32(&i.busy, &expected, 1) {
		return ERRC_BUSY
	}
	return ERRC_NONE
}

func (i *I2CController) release() {
	atomicStore32(&i.busy, 0)
}

// WriteBlocking performs a master write and waits for completion.
func (i *I2CController) WriteBlocking(addr uint16, data []byte) Errc {
	if errc := checkI2CTransfer(data); errc != ERRC_NONE {
		return errc
	}
	if errc := i.acquire(); errc != ERRC_NONE {
		return errc
	}
	defer i.release()
	dev := i.device(addr)
	if dev == nil {
		return ERRC_TIMEOUT // No acknowledge from the addressed device
	}
	time.Sleep(time.Duration(len(data)) * i2cByteTime)
	dev.WriteBytes(data)
	return ERRC_NONE
}

// ReadBlocking performs a master read and waits for completion.
func (i *I2CController) ReadBlocking(addr uint16, buf []byte) Errc {
	if errc := checkI2CTransfer(buf); errc != ERRC_NONE {
		return errc
	}
	if errc := i.acquire(); errc != ERRC_NONE {
		return errc
	}
	defer i.release()
	dev := i.device(addr)
	if dev == nil {
		return ERRC_TIMEOUT
	}
	time.Sleep(time.Duration(len(buf)) * i2cByteTime)
	dev.ReadBytes(buf)
	return ERRC_NONE
}

// WriteAsync starts a master write and returns immediately; callback
// runs on the controller's transfer context when the bus goes idle
// again.
func (i *I2CController) WriteAsync(addr uint16, data []byte, callback I2CCallback) Errc {
	if errc := checkI2CTransfer(data); errc != ERRC_NONE {
		return errc
	}
	if errc := i.acquire(); errc != ERRC_NONE {
		return errc
	}
	go func() {
		dev := i.device(addr)
		time.Sleep(time.Duration(len(data)) * i2cByteTime)
		if dev != nil {
			dev.WriteBytes(data)
		}
		i.release()
		if callback != nil {
			callback(dev != nil)
		}
	}()
	return ERRC_NONE
}

// ReadAsync starts a master read into buf and returns immediately;
// callback runs when the transfer completes. The caller must not touch
// buf until then.
func (i *I2CController) ReadAsync(addr uint16, buf []byte, callback I2CCallback) Errc {
	if errc := checkI2CTransfer(buf); errc != ERRC_NONE {
		return errc
	}
	if errc := i.acquire(); errc != ERRC_NONE {
		return errc
	}
	go func() {
		defer i.release()
		dev := i.device(addr)
		time.Sleep(time.Duration(len(buf)) * i2cByteTime)
		if dev == nil {
			if callback != nil {
				callback(false)
			}
			return
		}
		dev.ReadBytes(buf)
		if callback != nil {
			callback(true)
		}
	}()
	return ERRC_NONE
}

// Reset detaches nothing but returns the controller to its unconfigured
// power-on state. In-flight transfers drain first.
func (i *I2CController) Reset() {
	for atomicLoad32(&i.busy) != 0 {
		time.Sleep(10 * time.Microsecond)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.config = I2CConfig{}
	i.configured = false
	i.enabled = false
}
