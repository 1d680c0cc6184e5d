package capability

import "testing"

func TestSetOperations(t *testing.T) {
	a := EyeTracking | GazeDepth
	b := GazeDepth | PositionTracking

	t.Run("Union", func(t *testing.T) {
		got := a.Union(b)
		want := EyeTracking | GazeDepth | PositionTracking
		if got != want {
			t.Errorf("Union = %v, want %v", got, want)
		}
	})

	t.Run("Intersect", func(t *testing.T) {
		if got := a.Intersect(b); got != GazeDepth {
			t.Errorf("Intersect = %v, want GazeDepth", got)
		}
	})

	t.Run("Subtract", func(t *testing.T) {
		if got := a.Subtract(b); got != EyeTracking {
			t.Errorf("Subtract = %v, want EyeTracking", got)
		}
	})

	t.Run("NoneIsIdentity", func(t *testing.T) {
		if a.Union(None) != a {
			t.Error("A | None should equal A")
		}
		if None.Union(a) != a {
			t.Error("None | A should equal A")
		}
	})
}

// Subtraction must match intersection-with-complement: (A|B) &^ B == A &^ B.
func TestSubtractMatchesComplementIntersection(t *testing.T) {
	sets := []Capabilities{
		None,
		EyeTracking,
		EyeTracking | GazeDepth,
		PoseDomain,
		EyeTrackingDomain,
		All(),
	}
	for _, a := range sets {
		for _, b := range sets {
			left := a.Union(b).Subtract(b)
			right := a.Subtract(b)
			if left != right {
				t.Errorf("(%v | %v) &^ %v = %v, want %v", a, b, b, left, right)
			}
			if comp := a.Union(b).Intersect(b.Complement()); comp != left {
				t.Errorf("complement-intersect disagrees with subtract for %v, %v", a, b)
			}
		}
	}
}

func TestContainsReflexive(t *testing.T) {
	sets := []Capabilities{None, EyeTracking, EyeTrackingDomain, All()}
	for _, s := range sets {
		if !s.Contains(s) {
			t.Errorf("%v should contain itself", s)
		}
	}
}

func TestContains(t *testing.T) {
	caps := EyeTracking | PositionTracking
	if !caps.Contains(EyeTracking) {
		t.Error("caps should contain EyeTracking")
	}
	if caps.Contains(GazeDepth) {
		t.Error("caps should not contain GazeDepth")
	}
	if !caps.Contains(None) {
		t.Error("every set contains None")
	}
}

func TestString(t *testing.T) {
	if got := None.String(); got != "None" {
		t.Errorf("None.String() = %q", got)
	}
	if got := (EyeTracking | GazeDepth).String(); got != "EyeTracking|GazeDepth" {
		t.Errorf("String() = %q", got)
	}
}

func TestParse(t *testing.T) {
	got, ok := Parse("EyeTracking")
	if !ok || got != EyeTracking {
		t.Errorf("Parse(EyeTracking) = %v, %v", got, ok)
	}
	if _, ok := Parse("Telepathy"); ok {
		t.Error("Parse should reject unknown names")
	}
}

func TestRegistryIdempotence(t *testing.T) {
	r := NewRegistry()

	r.Register(EyeTracking)
	once := r.Active()
	r.Register(EyeTracking)
	if r.Active() != once {
		t.Error("double register must equal single register")
	}

	r.Unregister(GazeDepth) // never registered
	if r.Active() != once {
		t.Error("unregistering an absent capability must leave the set unchanged")
	}

	r.Unregister(EyeTracking)
	if r.Active() != None {
		t.Error("unregister should remove the capability")
	}
}

func TestRegistryActivePassiveIndependent(t *testing.T) {
	r := NewRegistry()
	r.Register(EyeTracking)
	r.RegisterPassive(GazeDepth)

	if r.Active() != EyeTracking {
		t.Errorf("Active = %v, want EyeTracking", r.Active())
	}
	if r.Passive() != GazeDepth {
		t.Errorf("Passive = %v, want GazeDepth", r.Passive())
	}

	// Registering the same capability in both sets keeps two entries.
	r.RegisterPassive(EyeTracking)
	r.Unregister(EyeTracking)
	if !r.Passive().Contains(EyeTracking) {
		t.Error("active unregister must not touch the passive set")
	}
}

func TestRegistryCanQuery(t *testing.T) {
	r := NewRegistry()
	if r.CanQuery(EyeTracking) {
		t.Error("empty registry can query nothing")
	}
	r.RegisterPassive(EyeTracking)
	if !r.CanQuery(EyeTracking) {
		t.Error("passive registration permits queries")
	}
	if !r.CanQuery(EyeTracking | GazeDepth) {
		t.Error("CanQuery needs only one of the given capabilities")
	}
	if r.CanQuery(GazeDepth) {
		t.Error("unregistered capability must not be queryable")
	}
}
