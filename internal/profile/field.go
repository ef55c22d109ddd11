package profile

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/phinze/inviscam/internal/reactive"
)

// ErrLocked is returned when writing a field the profile does not allow
// editing.
var ErrLocked = errors.New("setting is locked for this profile")

// Item is a default value and whether the user may change it.
type Item[T any] struct {
	Value   T
	Enabled bool
}

func item[T any](v T, enabled bool) Item[T] {
	return Item[T]{Value: v, Enabled: enabled}
}

// Entry is the type-erased view of a field used by persistence and the CLI.
type Entry interface {
	Key() string
	Locked() bool
	String() string
	DefaultString() string
	SetString(s string) error
	Reset()

	modified() bool
	encode() any
	decode(n *yaml.Node) error
}

// Field is one typed, observable setting. A locked field always reads its
// default and ignores writes.
type Field[T comparable] struct {
	key       string
	def       Item[T]
	cell      *reactive.Cell[T]
	normalize func(T) T
	changed   func()
}

func newField[T comparable](key string, def Item[T], changed func()) *Field[T] {
	return &Field[T]{
		key:     key,
		def:     def,
		cell:    reactive.NewCell(def.Value),
		changed: changed,
	}
}

// Key is the persistence key.
func (f *Field[T]) Key() string { return f.key }

// Locked reports whether the field is fixed to its default.
func (f *Field[T]) Locked() bool { return !f.def.Enabled }

// Default returns the profile default.
func (f *Field[T]) Default() T { return f.def.Value }

// Get returns the current value.
func (f *Field[T]) Get() T {
	if f.Locked() {
		return f.def.Value
	}
	return f.cell.Get()
}

// Observe implements reactive.Observable.
func (f *Field[T]) Observe(fn func(T)) func() {
	if f.Locked() {
		return reactive.Const(f.def.Value).Observe(fn)
	}
	return f.cell.Observe(fn)
}

// Set stores v unless the field is locked.
func (f *Field[T]) Set(v T) {
	if f.Locked() {
		return
	}
	if f.normalize != nil {
		v = f.normalize(v)
	}
	if v == f.cell.Get() {
		return
	}
	f.cell.Set(v)
	if f.changed != nil {
		f.changed()
	}
}

// Reset restores the default.
func (f *Field[T]) Reset() {
	f.Set(f.def.Value)
}

func (f *Field[T]) String() string        { return fmt.Sprint(f.Get()) }
func (f *Field[T]) DefaultString() string { return fmt.Sprint(f.def.Value) }

// SetString parses s the way the settings file would and stores it.
func (f *Field[T]) SetString(s string) error {
	if f.Locked() {
		return fmt.Errorf("%s: %w", f.key, ErrLocked)
	}
	return f.decode(&yaml.Node{Kind: yaml.ScalarNode, Value: s})
}

func (f *Field[T]) modified() bool { return !f.Locked() && f.cell.Get() != f.def.Value }
func (f *Field[T]) encode() any    { return f.cell.Get() }

func (f *Field[T]) decode(n *yaml.Node) error {
	var v T
	if err := n.Decode(&v); err != nil {
		return fmt.Errorf("%s: %w", f.key, err)
	}
	f.Set(v)
	return nil
}

// Percent is a fraction stored as an integer percentage, clamped to bounds
// that may depend on other settings.
type Percent struct {
	*Field[int]
	bounds func() (lo, hi int)
	value  reactive.Observable[float64]
}

func newPercent(key string, def Item[float64], bounds func() (int, int), changed func(), deps ...reactive.Dependency) *Percent {
	lo, hi := bounds()
	p := &Percent{
		Field:  newField(key, item(fromPercentage(def.Value, lo, hi), def.Enabled), changed),
		bounds: bounds,
	}
	p.normalize = func(v int) int {
		lo, hi := p.bounds()
		return min(max(v, lo), hi)
	}
	p.value = reactive.Derive(p.Fraction, append(deps, reactive.On[int](p.Field))...)
	return p
}

// Fraction returns the current value as a fraction.
func (p *Percent) Fraction() float64 {
	lo, hi := p.bounds()
	return toPercentage(p.Get(), lo, hi)
}

// Value is the observable fraction.
func (p *Percent) Value() reactive.Observable[float64] { return p.value }

// SetFraction stores f rounded to a whole percent.
func (p *Percent) SetFraction(f float64) {
	lo, hi := p.bounds()
	p.Set(fromPercentage(f, lo, hi))
}

func fromPercentage(f float64, lo, hi int) int {
	return min(max(int(math.Round(f*100)), lo), hi)
}

func toPercentage(v, lo, hi int) float64 {
	return min(max(float64(v), float64(lo)), float64(hi)) / 100
}

func fixedBounds(lo, hi int) func() (int, int) {
	return func() (int, int) { return lo, hi }
}
