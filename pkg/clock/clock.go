// Package clock abstrae la hora del sistema para poder testear de forma
// determinista el sweep y las ventanas de vigencia de los ajustes temporales.
package clock

import "time"

// Clock expone la hora actual.
type Clock interface {
	Now() time.Time
}

// RealClock es la implementación de producción.
type RealClock struct{}

// NewRealClock construye un RealClock.
func NewRealClock() Clock {
	return &RealClock{}
}

// Now devuelve la hora del sistema en UTC.
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock es una implementación de test con hora controlable.
type MockClock struct {
	current time.Time
}

// NewMockClock construye un MockClock fijado en startTime.
func NewMockClock(startTime time.Time) *MockClock {
	return &MockClock{current: startTime}
}

// Now devuelve la hora simulada.
func (m *MockClock) Now() time.Time {
	return m.current
}

// Set fija la hora simulada.
func (m *MockClock) Set(t time.Time) {
	m.current = t
}

// Advance avanza la hora simulada.
func (m *MockClock) Advance(d time.Duration) {
	m.current = m.current.Add(d)
}
