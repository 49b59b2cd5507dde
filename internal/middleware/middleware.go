// Package middleware provides row transformations applied while reading and
// writing delimited text.
//
// A Unit declares which passes it takes part in through its Capability
// flags. A Pipeline runs its units in registration order on both passes, so
// a unit that adds an escape prefix on write is also the one that removes
// it on read.
package middleware

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/JonMunkholm/csvparser/internal/core"
)

// Capability flags which passes a Unit takes part in.
type Capability uint8

const (
	ReadsRows Capability = 1 << iota
	WritesRows
)

// Has reports whether all flags in o are set.
func (c Capability) Has(o Capability) bool {
	return c&o == o
}

func (c Capability) String() string {
	switch c {
	case ReadsRows:
		return "read"
	case WritesRows:
		return "write"
	case ReadsRows | WritesRows:
		return "read+write"
	}
	return "none"
}

// RowFunc transforms one record. It receives a record it may modify.
type RowFunc func(rec core.Record, ctx core.RowContext) (core.Record, error)

// Unit is a named row transformation. Read must be set when Caps includes
// ReadsRows and Write when it includes WritesRows.
type Unit struct {
	Name  string
	Caps  Capability
	Read  RowFunc
	Write RowFunc
}

func (u Unit) validate() error {
	if u.Caps == 0 {
		return fmt.Errorf("middleware %q declares no capabilities", u.Name)
	}
	if u.Caps.Has(ReadsRows) && u.Read == nil {
		return fmt.Errorf("middleware %q reads rows but has no Read func", u.Name)
	}
	if u.Caps.Has(WritesRows) && u.Write == nil {
		return fmt.Errorf("middleware %q writes rows but has no Write func", u.Name)
	}
	return nil
}

// Pipeline is an ordered list of units. Register every unit before handing
// the pipeline to a parser; the list must not change while a pass runs.
type Pipeline struct {
	units []Unit
}

// NewPipeline registers units in order.
func NewPipeline(units ...Unit) (*Pipeline, error) {
	p := &Pipeline{}
	for _, u := range units {
		if err := p.Register(u); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Register appends u to the pipeline.
func (p *Pipeline) Register(u Unit) error {
	if err := u.validate(); err != nil {
		return err
	}
	p.units = append(p.units, u)
	return nil
}

// Units returns the registered units in order.
func (p *Pipeline) Units() []Unit {
	return slices.Clone(p.units)
}

// Len returns the number of registered units.
func (p *Pipeline) Len() int {
	return len(p.units)
}

// ApplyRead runs every read-capable unit in registration order.
func (p *Pipeline) ApplyRead(rec core.Record, ctx core.RowContext) (core.Record, error) {
	return p.apply(ReadsRows, rec, ctx)
}

// ApplyWrite runs every write-capable unit in registration order.
func (p *Pipeline) ApplyWrite(rec core.Record, ctx core.RowContext) (core.Record, error) {
	return p.apply(WritesRows, rec, ctx)
}

func (p *Pipeline) apply(pass Capability, rec core.Record, ctx core.RowContext) (core.Record, error) {
	var err error
	rec = rec.Clone()
	for _, u := range p.units {
		if !u.Caps.Has(pass) {
			continue
		}
		fn := u.Read
		if pass == WritesRows {
			fn = u.Write
		}
		rec, err = fn(rec, ctx)
		if err != nil {
			return core.Record{}, err
		}
	}
	return rec, nil
}

// resolve returns the position of field in rec. Associative records are
// looked up by name; positional ones through the header list in ctx.
// Unknown fields resolve to -1.
func resolve(rec core.Record, field string, ctx core.RowContext) int {
	if !rec.IsPositional() {
		return rec.Index(field)
	}
	i := slices.Index(ctx.Headers, field)
	if i >= rec.Len() {
		return -1
	}
	return i
}

// mapFields applies fn to each named field present in rec.
func mapFields(rec core.Record, fields []string, ctx core.RowContext, fn func(string) string) core.Record {
	for _, f := range fields {
		if i := resolve(rec, f, ctx); i >= 0 {
			rec.SetAt(i, fn(rec.At(i)))
		}
	}
	return rec
}

// fieldName names position i of rec for error messages.
func fieldName(rec core.Record, i int) string {
	if rec.IsPositional() {
		return strconv.Itoa(i)
	}
	return rec.Keys()[i]
}
