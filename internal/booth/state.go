package booth

import (
	"fmt"
	"sync"
)

// State состояние цикла обслуживания одного посетителя будки.
type State string

const (
	StateIdle       State = "IDLE"
	StatePickup     State = "PICKUP"
	StateListening  State = "LISTENING"
	StateProcessing State = "PROCESSING"
	StateSpeaking   State = "SPEAKING"
	StateHangup     State = "HANGUP"
	StateError      State = "ERROR"
)

// InvalidTransitionError попытка недопустимого перехода состояний.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booth transition %s -> %s", e.From, e.To)
}

// transitions допустимые переходы. ERROR достижим из любого
// неожидающего состояния; HANGUP всегда возвращает будку в IDLE.
var transitions = map[State][]State{
	StateIdle:       {StatePickup},
	StatePickup:     {StateListening, StateHangup, StateError},
	StateListening:  {StateProcessing, StateHangup, StateError},
	StateProcessing: {StateSpeaking, StateHangup, StateError},
	StateSpeaking:   {StateListening, StateHangup, StateError},
	StateHangup:     {StateIdle},
	StateError:      {StateHangup, StateIdle},
}

// Machine валидирующий конечный автомат будки. IDLE одновременно
// начальное и завершающее состояние каждого цикла.
type Machine struct {
	mu      sync.Mutex
	current State
}

// NewMachine создаёт автомат в состоянии IDLE.
func NewMachine() *Machine {
	return &Machine{current: StateIdle}
}

// Current текущее состояние.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// TransitionTo переводит автомат в to, если переход допустим.
func (m *Machine) TransitionTo(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range transitions[m.current] {
		if allowed == to {
			m.current = to
			return nil
		}
	}
	return &InvalidTransitionError{From: m.current, To: to}
}

// Fail переводит автомат в ERROR из любого неожидающего состояния.
func (m *Machine) Fail() error {
	return m.TransitionTo(StateError)
}
