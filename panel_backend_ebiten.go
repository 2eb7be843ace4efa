//go:build !headless

// panel_backend_ebiten.go - Ebiten LED panel backend

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	panelWidth  = 260
	panelHeight = 100
	ledSize     = 48
	ledSpacing  = 80
	ledMarginX  = 22
	ledMarginY  = 26
)

var (
	panelBackground = color.RGBA{0x18, 0x18, 0x20, 0xFF}
	ledOnColors     = [NUM_LEDS]color.RGBA{
		LED_GREEN:  {0x20, 0xE0, 0x40, 0xFF},
		LED_YELLOW: {0xF0, 0xD0, 0x20, 0xFF},
		LED_RED:    {0xF0, 0x30, 0x30, 0xFF},
	}
	ledOffColors = [NUM_LEDS]color.RGBA{
		LED_GREEN:  {0x10, 0x40, 0x18, 0xFF},
		LED_YELLOW: {0x46, 0x40, 0x10, 0xFF},
		LED_RED:    {0x48, 0x14, 0x14, 0xFF},
	}
)

type EbitenPanel struct {
	mu      sync.Mutex
	running bool
	states  [NUM_LEDS]bool
	stopped chan struct{}
	ledTile *ebiten.Image
}

func NewLedPanel() (PanelOutput, error) {
	return &EbitenPanel{stopped: make(chan struct{})}, nil
}

func (p *EbitenPanel) Start() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	ebiten.SetWindowSize(panelWidth*2, panelHeight*2)
	ebiten.SetWindowTitle("TitanCore LED Panel (c) 2024 - 2026 Zayn Otley")
	ebiten.SetRunnableOnUnfocused(true)

	go func() {
		if err := ebiten.RunGame(p); err != nil && !errors.Is(err, ebiten.Termination) {
			fmt.Printf("Ebiten error: %v\n", err)
		}
		close(p.stopped)
	}()
	return nil
}

func (p *EbitenPanel) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()
	<-p.stopped
	return nil
}

func (p *EbitenPanel) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *EbitenPanel) UpdateLeds(states [NUM_LEDS]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = states
}

// Update implements ebiten.Game. Termination is requested via Stop.
func (p *EbitenPanel) Update() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game: background plus one tile per LED, lit or
// dimmed.
func (p *EbitenPanel) Draw(screen *ebiten.Image) {
	p.mu.Lock()
	states := p.states
	p.mu.Unlock()

	screen.Fill(panelBackground)
	if p.ledTile == nil {
		p.ledTile = ebiten.NewImage(ledSize, ledSize)
	}
	for led := Led(0); led < NUM_LEDS; led++ {
		if states[led] {
			p.ledTile.Fill(ledOnColors[led])
		} else {
			p.ledTile.Fill(ledOffColors[led])
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(ledMarginX+int(led)*ledSpacing), float64(ledMarginY))
		screen.DrawImage(p.ledTile, op)
	}
}

// Layout implements ebiten.Game.
func (p *EbitenPanel) Layout(outsideWidth, outsideHeight int) (int, int) {
	return panelWidth, panelHeight
}
