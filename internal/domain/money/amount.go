package money

import (
	"errors"
	"fmt"

	"lukechampine.com/uint128"
)

var (
	ErrOverflow  = errors.New("money: amount exceeds 128-bit range")
	ErrUnderflow = errors.New("money: amount would drop below zero")
	ErrInvalid   = errors.New("money: invalid amount")
)

// Amount is an unsigned 128-bit quantity of the single settlement currency.
// All arithmetic is checked; nothing wraps.
type Amount struct {
	v uint128.Uint128
}

// Zero is the zero amount.
var Zero = Amount{}

// Max is the largest representable amount.
var Max = Amount{v: uint128.Max}

func FromUint64(v uint64) Amount { return Amount{v: uint128.From64(v)} }

// New builds an amount from its high and low 64-bit halves.
func New(lo, hi uint64) Amount { return Amount{v: uint128.New(lo, hi)} }

// Parse reads a base-10 amount.
func Parse(s string) (Amount, error) {
	if s == "" {
		return Zero, fmt.Errorf("%w: empty", ErrInvalid)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
	}
	v, err := uint128.FromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return Amount{v: v}, nil
}

func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) String() string { return a.v.String() }

func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) Cmp(b Amount) int { return a.v.Cmp(b.v) }

func (a Amount) Equal(b Amount) bool { return a.v.Equals(b.v) }

// MulQuantity returns a*q or ErrOverflow.
func (a Amount) MulQuantity(q uint64) (Amount, error) {
	if q == 0 || a.v.IsZero() {
		return Zero, nil
	}
	p := a.v.MulWrap64(q)
	if !p.Div64(q).Equals(a.v) {
		return Zero, ErrOverflow
	}
	return Amount{v: p}, nil
}

// Add returns a+b or ErrOverflow.
func (a Amount) Add(b Amount) (Amount, error) {
	s := a.v.AddWrap(b.v)
	if s.Cmp(a.v) < 0 {
		return Zero, ErrOverflow
	}
	return Amount{v: s}, nil
}

// Sub returns a-b or ErrUnderflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.v.Cmp(b.v) < 0 {
		return Zero, ErrUnderflow
	}
	return Amount{v: a.v.SubWrap(b.v)}, nil
}

// MarshalText encodes the amount as a decimal string so JSON carries it without
// float rounding.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.String()), nil
}

func (a *Amount) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
