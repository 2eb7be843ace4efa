//go:build headless

// panel_backend_headless.go - Headless LED panel backend

package main

import "sync"

type HeadlessPanel struct {
	mu      sync.Mutex
	started bool
	states  [NUM_LEDS]bool
	updates uint64
}

func NewLedPanel() (PanelOutput, error) {
	return &HeadlessPanel{}, nil
}

func (p *HeadlessPanel) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	return nil
}

func (p *HeadlessPanel) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	return nil
}

func (p *HeadlessPanel) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *HeadlessPanel) UpdateLeds(states [NUM_LEDS]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = states
	p.updates++
}

// LedStates returns the last states pushed to the panel.
func (p *HeadlessPanel) LedStates() [NUM_LEDS]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states
}

// UpdateCount returns how many LED updates the panel has received.
func (p *HeadlessPanel) UpdateCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updates
}
