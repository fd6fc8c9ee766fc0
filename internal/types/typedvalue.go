package types

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type ValueKind string

const (
	KindText       ValueKind = "text"
	KindNumber     ValueKind = "number"
	KindBoolean    ValueKind = "boolean"
	KindStructured ValueKind = "structured"
	KindDate       ValueKind = "date"
)

// TypedValue is the tagged union stored in one core_dynamic_data row. The
// fields are unexported so only the constructors can populate them, which
// makes "exactly one variant set" a construction invariant instead of a
// runtime convention.
type TypedValue struct {
	kind       ValueKind
	text       string
	number     float64
	boolean    bool
	structured json.RawMessage
	date       time.Time
}

func TextValue(v string) TypedValue {
	return TypedValue{kind: KindText, text: v}
}

func NumberValue(v float64) TypedValue {
	return TypedValue{kind: KindNumber, number: v}
}

func BooleanValue(v bool) TypedValue {
	return TypedValue{kind: KindBoolean, boolean: v}
}

func StructuredValue(v json.RawMessage) TypedValue {
	return TypedValue{kind: KindStructured, structured: v}
}

func DateValue(v time.Time) TypedValue {
	return TypedValue{kind: KindDate, date: v}
}

// FromAny maps a runtime value onto its storage variant: string to text,
// numeric kinds to number, bool to boolean, time.Time to date, and any
// object or array to structured JSON.
func FromAny(v interface{}) (TypedValue, error) {
	switch t := v.(type) {
	case string:
		return TextValue(t), nil
	case bool:
		return BooleanValue(t), nil
	case float64:
		return NumberValue(t), nil
	case float32:
		return NumberValue(float64(t)), nil
	case int:
		return NumberValue(float64(t)), nil
	case int32:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return TypedValue{}, fmt.Errorf("numeric value %q: %w", t.String(), err)
		}
		return NumberValue(f), nil
	case time.Time:
		return DateValue(t), nil
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(t)
		if err != nil {
			return TypedValue{}, fmt.Errorf("marshal structured value: %w", err)
		}
		return StructuredValue(raw), nil
	case json.RawMessage:
		return StructuredValue(t), nil
	case nil:
		return TypedValue{}, fmt.Errorf("nil value has no storage variant")
	default:
		return TypedValue{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func (v TypedValue) Kind() ValueKind { return v.kind }

func (v TypedValue) Text() string              { return v.text }
func (v TypedValue) Number() float64           { return v.number }
func (v TypedValue) Boolean() bool             { return v.boolean }
func (v TypedValue) Structured() json.RawMessage { return v.structured }
func (v TypedValue) Date() time.Time           { return v.date }

// AsAny flattens the value back to its plain Go form for API payloads.
func (v TypedValue) AsAny() interface{} {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.number
	case KindBoolean:
		return v.boolean
	case KindStructured:
		var decoded interface{}
		if err := json.Unmarshal(v.structured, &decoded); err != nil {
			return string(v.structured)
		}
		return decoded
	case KindDate:
		return v.date
	default:
		return nil
	}
}

// ApplyTo writes the value into a dynamic-data row, clearing every other
// variant column. Clearing on every write is what keeps the single-variant
// invariant true for rows that change type across updates.
func (v TypedValue) ApplyTo(row *DynamicData) error {
	if row == nil {
		return fmt.Errorf("nil dynamic data row")
	}
	row.FieldValueText = nil
	row.FieldValueNumber = nil
	row.FieldValueBoolean = nil
	row.FieldValueJSON = nil
	row.FieldValueDate = nil
	switch v.kind {
	case KindText:
		text := v.text
		row.FieldValueText = &text
	case KindNumber:
		number := v.number
		row.FieldValueNumber = &number
	case KindBoolean:
		boolean := v.boolean
		row.FieldValueBoolean = &boolean
	case KindStructured:
		row.FieldValueJSON = datatypes.JSON(v.structured)
	case KindDate:
		date := v.date
		row.FieldValueDate = &date
	default:
		return fmt.Errorf("typed value has no variant set")
	}
	return nil
}

// FromRow reconstructs the value from whichever variant column is populated.
// Zero or multiple populated variants is a contract violation.
func FromRow(row DynamicData) (TypedValue, error) {
	var (
		value TypedValue
		count int
	)
	if row.FieldValueText != nil {
		value = TextValue(*row.FieldValueText)
		count++
	}
	if row.FieldValueNumber != nil {
		value = NumberValue(*row.FieldValueNumber)
		count++
	}
	if row.FieldValueBoolean != nil {
		value = BooleanValue(*row.FieldValueBoolean)
		count++
	}
	if len(row.FieldValueJSON) > 0 {
		value = StructuredValue(json.RawMessage(row.FieldValueJSON))
		count++
	}
	if row.FieldValueDate != nil {
		value = DateValue(*row.FieldValueDate)
		count++
	}
	if count != 1 {
		return TypedValue{}, fmt.Errorf("dynamic data row %s field %q: %d variants populated, want exactly 1", row.ID, row.FieldName, count)
	}
	return value, nil
}
