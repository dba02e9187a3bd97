package jsoncodec

import (
	"reflect"
	"time"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
	"github.com/shopspring/decimal"
)

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate returns the date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	dateType    = reflect.TypeOf(Date{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// scalarExtension swaps in codec-aware encoders and decoders for the
// scalar types listed in the package documentation.
type scalarExtension struct {
	jsoniter.DummyExtension
	codec *Codec
}

func (e *scalarExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	switch typ.Type1() {
	case timeType:
		return &timestampEncoder{codec: e.codec}
	case dateType:
		return dateEncoder{}
	case decimalType:
		return decimalEncoder{}
	}
	return nil
}

func (e *scalarExtension) CreateDecoder(typ reflect2.Type) jsoniter.ValDecoder {
	switch typ.Type1() {
	case timeType:
		return &timestampDecoder{codec: e.codec}
	case dateType:
		return dateDecoder{}
	case decimalType:
		return decimalDecoder{}
	}
	return nil
}

type timestampEncoder struct {
	codec *Codec
}

func (enc *timestampEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return (*time.Time)(ptr).IsZero()
}

func (enc *timestampEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteString(enc.codec.FormatTimestamp(*(*time.Time)(ptr)))
}

type timestampDecoder struct {
	codec *Codec
}

func (dec *timestampDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	t, err := dec.codec.ParseTimestamp(iter.ReadString())
	if err != nil {
		iter.ReportError("decode timestamp", err.Error())
		return
	}
	*(*time.Time)(ptr) = t
}

type dateEncoder struct{}

func (dateEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return (*Date)(ptr).IsZero()
}

func (dateEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteString((*Date)(ptr).String())
}

type dateDecoder struct{}

func (dateDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	t, err := time.Parse(DateLayout, iter.ReadString())
	if err != nil {
		iter.ReportError("decode date", err.Error())
		return
	}
	*(*Date)(ptr) = Date{Time: t}
}

type decimalEncoder struct{}

func (decimalEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return (*decimal.Decimal)(ptr).IsZero()
}

func (decimalEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteString(decimalText(*(*decimal.Decimal)(ptr)))
}

// decimalText keeps the scale the value was created with, so 10.50 stays
// "10.50" rather than "10.5".
func decimalText(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

type decimalDecoder struct{}

func (decimalDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	var text string
	switch iter.WhatIsNext() {
	case jsoniter.NumberValue:
		text = string(iter.ReadNumber())
	default:
		text = iter.ReadString()
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		iter.ReportError("decode decimal", err.Error())
		return
	}
	*(*decimal.Decimal)(ptr) = d
}
