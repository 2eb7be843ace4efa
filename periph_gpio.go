// periph_gpio.go - GPIO ports and the user LED driver

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

import "sync"

// ------------------------------------------------------------------------------
// GPIO Register Offsets and RCC Clock-Enable Bits
// ------------------------------------------------------------------------------
const (
	GPIO_MODER_OFFSET = 0x00 // Pin mode register, 2 bits per pin
	GPIO_IDR_OFFSET   = 0x10 // Input data register
	GPIO_ODR_OFFSET   = 0x14 // Output data register

	GPIO_MODE_OUTPUT = 0b01

	RCC_AHB4ENR         = RCC_BASE + 0xE0
	RCC_AHB4ENR_GPIOBEN = 1 << 1
	RCC_AHB4ENR_GPIOEEN = 1 << 4
)

// GpioPort is one emulated GPIO port. Register access is gated on the
// port's RCC clock-enable bit, as on the real part: with the clock off,
// writes are lost and reads return zero.
type GpioPort struct {
	mu       sync.Mutex
	base     uint32
	clockBit uint32
	moder    uint32
	odr      uint32
}

// GpioController owns the GPIO ports and the RCC clock-enable register.
type GpioController struct {
	mu     sync.Mutex
	ahb4en uint32
	ports  map[uint32]*GpioPort
}

// NewGpioController creates ports B and E and maps them, plus the RCC
// clock register, onto the bus.
func NewGpioController(bus *SystemBus) *GpioController {
	g := &GpioController{ports: make(map[uint32]*GpioPort)}
	for _, port := range []*GpioPort{
		{base: GPIOB_BASE, clockBit: RCC_AHB4ENR_GPIOBEN},
		{base: GPIOE_BASE, clockBit: RCC_AHB4ENR_GPIOEEN},
	} {
		g.ports[port.base] = port
		base := port.base
		_ = bus.MapIO(base, base+0x28, func(addr uint32) uint32 {
			return g.readPort(base, addr-base)
		}, func(addr uint32, value uint32) {
			g.writePort(base, addr-base, value)
		})
	}
	_ = bus.MapIO(RCC_AHB4ENR, RCC_AHB4ENR, func(uint32) uint32 {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.ahb4en
	}, func(_ uint32, value uint32) {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.ahb4en = value
	})
	return g
}

func (g *GpioController) clockEnabled(port *GpioPort) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ahb4en&port.clockBit != 0
}

func (g *GpioController) readPort(base, offset uint32) uint32 {
	port := g.ports[base]
	if port == nil || !g.clockEnabled(port) {
		return 0
	}
	port.mu.Lock()
	defer port.mu.Unlock()
	switch offset {
	case GPIO_MODER_OFFSET:
		return port.moder
	case GPIO_IDR_OFFSET, GPIO_ODR_OFFSET:
		return port.odr
	}
	return 0
}

func (g *GpioController) writePort(base, offset uint32, value uint32) {
	port := g.ports[base]
	if port == nil || !g.clockEnabled(port) {
		return
	}
	port.mu.Lock()
	defer port.mu.Unlock()
	switch offset {
	case GPIO_MODER_OFFSET:
		port.moder = value
	case GPIO_ODR_OFFSET:
		port.odr = value
	}
}

// Reset returns all ports and the clock register to power-on state.
func (g *GpioController) Reset() {
	g.mu.Lock()
	g.ahb4en = 0
	g.mu.Unlock()
	for _, port := range g.ports {
		port.mu.Lock()
		port.moder = 0
		port.odr = 0
		port.mu.Unlock()
	}
}

// ------------------------------------------------------------------------------
// User LED Driver
// ------------------------------------------------------------------------------

// Led names one of the three user LEDs on the board.
type Led int

const (
	LED_GREEN Led = iota
	LED_YELLOW
	LED_RED
	NUM_LEDS
)

func (l Led) String() string {
	switch l {
	case LED_GREEN:
		return "green"
	case LED_YELLOW:
		return "yellow"
	case LED_RED:
		return "red"
	}
	return "?"
}

type ledConfig struct {
	port     uint32 // GPIO port base
	pin      uint32 // Pin number within the port
	clockBit uint32 // RCC AHB4ENR enable bit for the port
}

var ledMap = [NUM_LEDS]ledConfig{
	LED_GREEN:  {GPIOB_BASE, 0, RCC_AHB4ENR_GPIOBEN},
	LED_YELLOW: {GPIOE_BASE, 1, RCC_AHB4ENR_GPIOEEN},
	LED_RED:    {GPIOB_BASE, 14, RCC_AHB4ENR_GPIOBEN},
}

// LedInit enables the LED's port clock and configures its pin as an
// output. Must run before the first toggle.
func LedInit(bus *SystemBus, led Led) Errc {
	if led < 0 || led >= NUM_LEDS {
		return ERRC_INVALID_ARG
	}
	cfg := ledMap[led]
	bus.SetBits(RCC_AHB4ENR, cfg.clockBit)
	moder := bus.Read32(cfg.port + GPIO_MODER_OFFSET)
	moder &^= 0b11 << (cfg.pin * 2)
	moder |= GPIO_MODE_OUTPUT << (cfg.pin * 2)
	bus.Write32(cfg.port+GPIO_MODER_OFFSET, moder)
	return ERRC_NONE
}

// LedToggle inverts the LED's current state.
func LedToggle(bus *SystemBus, led Led) Errc {
	if led < 0 || led >= NUM_LEDS {
		return ERRC_INVALID_ARG
	}
	cfg := ledMap[led]
	bus.ToggleBits(cfg.port+GPIO_ODR_OFFSET, 1<<cfg.pin)
	return ERRC_NONE
}

// LedSet drives the LED to the given state.
func LedSet(bus *SystemBus, led Led, on bool) Errc {
	if led < 0 || led >= NUM_LEDS {
		return ERRC_INVALID_ARG
	}
	cfg := ledMap[led]
	odr := bus.Read32(cfg.port + GPIO_ODR_OFFSET)
	if on {
		odr |= 1 << cfg.pin
	} else {
		odr &^= 1 << cfg.pin
	}
	bus.Write32(cfg.port+GPIO_ODR_OFFSET, odr)
	return ERRC_NONE
}

// LedState reads back whether the LED is currently driven on.
func LedState(bus *SystemBus, led Led) (bool, Errc) {
	if led < 0 || led >= NUM_LEDS {
		return false, ERRC_INVALID_ARG
	}
	cfg := ledMap[led]
	return bus.Read32(cfg.port+GPIO_ODR_OFFSET)&(1<<cfg.pin) != 0, ERRC_NONE
}

// LedCountdown stages the three LEDs on one at a time, holding each for
// the given number of seconds, then turns them all off together. The
// LEDs must already be initialised and off.
func LedCountdown(c *Core, bus *SystemBus, seconds int64) Errc {
	if seconds < 0 {
		return ERRC_INVALID_ARG
	}
	hold, errc := SecondsToTime(seconds)
	if errc != ERRC_NONE {
		return errc
	}
	for _, led := range []Led{LED_GREEN, LED_YELLOW, LED_RED} {
		if errc := LedSet(bus, led, true); errc != ERRC_NONE {
			return errc
		}
		if errc := c.Sleep(hold); errc != ERRC_NONE {
			return errc
		}
	}
	for _, led := range []Led{LED_GREEN, LED_YELLOW, LED_RED} {
		if errc := LedSet(bus, led, false); errc != ERRC_NONE {
			return errc
		}
	}
	return ERRC_NONE
}
