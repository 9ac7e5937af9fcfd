package gtesting

import (
	"errors"
	"testing"
)

func AssertEqualInt(t *testing.T, name string, got, want int) {
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertEqualUint32(t *testing.T, name string, got, want uint32) {
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertNoError(t *testing.T, name string, err error) {
	t.Run(name, func(t *testing.T) {
		if err != nil {
			t.Errorf("got error %v; want nil", err)
		}
	})
}

func AssertErrorIs(t *testing.T, name string, err, want error) {
	t.Run(name, func(t *testing.T) {
		if !errors.Is(err, want) {
			t.Errorf("got error %v; want %v", err, want)
		}
	})
}
