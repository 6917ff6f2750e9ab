// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Updater is the interface that custom components built using reflection must implement.
// See MakePart.
//
type Updater interface {
	Update(c *Circuit)
}

var (
	updaterType = reflect.TypeOf((*Updater)(nil)).Elem()
	pinType     = reflect.TypeOf(PinID(0))
)

type field struct {
	index int
	pin   string
	bus   int // bus width, 0 for single pins
	input bool
	seq   bool
}

// MakePart wraps an Updater into a custom component.
// Input/output pins are identified by field tags.
//
// The field tag must be `hw:"in"` or `hw:"out"` to identify input and output
// pins. By default, the pin name is the field name in lowercase. A specific
// pin name can be forced by adding it in the tag: `hw:"in,pin_name"`. Input
// pins read at the previous cycle are tagged with a third "seq" value:
// `hw:"in,,seq"`.
//
// Pin fields must be of type PinID, buses arrays of PinID.
//
// Each node instance of the part gets its own copy of the struct, so that
// non-pin fields can hold node state.
//
func MakePart(t Updater) *PartSpec {
	typ := reflect.TypeOf(t)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if k := typ.Kind(); k != reflect.Struct {
		panic(errors.Errorf("unsupported type %q for %q", k, typ.Name()))
	}
	if !reflect.PointerTo(typ).Implements(updaterType) {
		panic(errors.Errorf("*%s does not implement Updater", typ.Name()))
	}

	sp := &PartSpec{
		Name: typ.Name(),
	}
	var fields []field

	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		fd := field{index: i, pin: strings.ToLower(f.Name)}
		tv := strings.Split(tag, ",")
		if len(tv) > 3 {
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}
		if len(tv) > 1 && tv[1] != "" {
			fd.pin = tv[1]
		}
		switch tv[0] {
		case "in":
			fd.input = true
		case "out":
		default:
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}
		if len(tv) == 3 {
			if tv[2] != "seq" || !fd.input {
				panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
			}
			fd.seq = true
		}

		var pins []string
		ft := f.Type
		switch {
		case ft.Kind() == reflect.Array && ft.Elem() == pinType:
			// bus
			fd.bus = ft.Len()
			for i := 0; i < ft.Len(); i++ {
				pins = append(pins, fd.pin+"["+strconv.Itoa(i)+"]")
			}
		case ft == pinType:
			pins = []string{fd.pin}
		default:
			panic(errors.Errorf("unsupported type %q for field %q in %q", ft, f.Name, typ.Name()))
		}
		if fd.input {
			sp.Inputs = append(sp.Inputs, pins...)
		} else {
			sp.Outputs = append(sp.Outputs, pins...)
		}
		if fd.seq {
			sp.Sequential = append(sp.Sequential, pins...)
		}
		fields = append(fields, fd)
	}
	sp.Mount = mountPart(typ, fields)
	return sp
}

func mountPart(typ reflect.Type, fields []field) MountFn {
	return func(s *Socket) Component {
		v := reflect.New(typ)
		e := v.Elem()
		for _, f := range fields {
			fv := e.Field(f.index)
			if f.bus > 0 {
				for i := 0; i < f.bus; i++ {
					fv.Index(i).SetInt(int64(s.Pin(f.pin + "[" + strconv.Itoa(i) + "]")))
				}
				continue
			}
			fv.SetInt(int64(s.Pin(f.pin)))
		}
		return v.Interface().(Updater).Update
	}
}
