package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

func Instance(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("instance", id)
	}
}

func Target(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("target", id)
	}
}

func Chart(kind string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("chart", kind)
	}
}

// Size adds the width and height of a surface.
func Size(width, height float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Float64("width", width).Float64("height", height)
	}
}

// Transition adds the states before and after a transition.
func Transition(from, to string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_state", from).Str("to_state", to)
	}
}

func Dataset(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("dataset", name)
	}
}

func Rows(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("rows", n)
	}
}

func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}
