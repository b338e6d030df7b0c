package car

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubMotor struct {
	value  float64
	closed bool
}

func (m *stubMotor) Forward(speed float64) error  { m.value = speed; return nil }
func (m *stubMotor) Backward(speed float64) error { m.value = -speed; return nil }
func (m *stubMotor) Stop() error                  { m.value = 0; return nil }
func (m *stubMotor) Value() float64               { return m.value }
func (m *stubMotor) Close() error                 { m.closed = true; return nil }

type stubFactory struct {
	built  []*stubMotor
	pins   [][2]int
	failAt int
}

func (f *stubFactory) build(fwd, bwd int) (Motor, error) {
	if f.failAt > 0 && len(f.built) == f.failAt {
		return nil, errors.New("pin in use")
	}
	m := &stubMotor{}
	f.built = append(f.built, m)
	f.pins = append(f.pins, [2]int{fwd, bwd})
	return m, nil
}

func TestNewActuatorGroupRejectsMalformedPins(t *testing.T) {
	tests := []struct {
		name string
		pins []PinPair
	}{
		{"single terminal", []PinPair{{17}}},
		{"three terminals", []PinPair{{17, 18}, {22, 23, 24}}},
		{"empty entry", []PinPair{{17, 18}, {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &stubFactory{}
			_, err := NewActuatorGroup(f.build, tt.pins...)
			if !errors.Is(err, ErrInvalidWiring) {
				t.Fatalf("error = %v, want %v", err, ErrInvalidWiring)
			}
			if len(f.built) != 0 {
				t.Errorf("built %d motors before rejecting wiring", len(f.built))
			}
		})
	}
}

func TestNewActuatorGroupClosesOnFactoryError(t *testing.T) {
	f := &stubFactory{failAt: 1}
	if _, err := NewActuatorGroup(f.build, PinPair{17, 18}, PinPair{22, 23}); err == nil {
		t.Fatal("expected factory error")
	}
	if !f.built[0].closed {
		t.Error("first motor not released after second failed")
	}
}

func TestActuatorGroupDrive(t *testing.T) {
	f := &stubFactory{}
	g, err := NewActuatorGroup(f.build, PinPair{17, 18}, PinPair{22, 23})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][2]int{{17, 18}, {22, 23}}, f.pins); diff != "" {
		t.Errorf("pins mismatch (-want +got):\n%s", diff)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
	if g.IsActive() {
		t.Error("new group is active")
	}

	_ = g.Forward(0.5)
	for i, m := range f.built {
		if m.value != 0.5 {
			t.Errorf("motor %d = %v, want 0.5", i, m.value)
		}
	}
	if !g.IsActive() {
		t.Error("IsActive() = false while driving")
	}

	_ = g.Reverse()
	for i, m := range f.built {
		if m.value != -0.5 {
			t.Errorf("motor %d after Reverse = %v, want -0.5", i, m.value)
		}
	}

	_ = g.Stop()
	if g.IsActive() {
		t.Error("IsActive() = true after Stop")
	}

	_ = g.Backward(3)
	if f.built[0].value != -FullSpeed {
		t.Errorf("speed not clamped: %v", f.built[0].value)
	}
	_ = g.Forward(math.NaN())
	if f.built[0].value != 0 {
		t.Errorf("NaN speed = %v, want 0", f.built[0].value)
	}
}

func TestActuatorGroupInverted(t *testing.T) {
	f := &stubFactory{}
	g, err := NewActuatorGroup(f.build, PinPair{5, 6})
	if err != nil {
		t.Fatal(err)
	}
	g.SetInverted(true)

	_ = g.Forward(1)
	if f.built[0].value != -1 {
		t.Errorf("inverted Forward = %v, want -1", f.built[0].value)
	}
	_ = g.Backward(1)
	if f.built[0].value != 1 {
		t.Errorf("inverted Backward = %v, want 1", f.built[0].value)
	}

	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.built[0].closed {
		t.Error("Close() did not release motor")
	}
}
