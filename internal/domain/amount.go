package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

// amountBits é a largura máxima de um valor monetário (u128)
const amountBits = 128

// Amount representa um valor de crédito sem sinal de 128 bits.
// Toda operação aritmética verifica overflow; nunca há wraparound silencioso.
type Amount struct {
	v uint256.Int
}

// MaxAmount é 2^128-1
var MaxAmount = func() Amount {
	var a Amount
	a.v.SetAllOne()
	a.v.Rsh(&a.v, 256-amountBits)
	return a
}()

// NewAmount cria um Amount a partir de um uint64
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// ParseAmount interpreta uma string decimal (apenas dígitos)
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("parse amount: empty: %w", ErrInvalidInput)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return Amount{}, fmt.Errorf("parse amount %q: %w", s, ErrInvalidInput)
		}
	}
	if len(s) > 80 {
		return Amount{}, fmt.Errorf("parse amount: %w", ErrOverflow)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, ErrOverflow)
	}
	a := Amount{v: *v}
	if a.v.BitLen() > amountBits {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, ErrOverflow)
	}
	return a, nil
}

// MustAmount é usado em constantes e testes
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) checked(v *uint256.Int, overflow bool) (Amount, error) {
	if overflow || v.BitLen() > amountBits {
		return Amount{}, ErrOverflow
	}
	return Amount{v: *v}, nil
}

// Add soma com verificação de overflow
func (a Amount) Add(b Amount) (Amount, error) {
	return a.checked(new(uint256.Int).AddOverflow(&a.v, &b.v))
}

// Sub subtrai; resultado negativo é tratado como overflow
func (a Amount) Sub(b Amount) (Amount, error) {
	return a.checked(new(uint256.Int).SubOverflow(&a.v, &b.v))
}

// Mul multiplica com verificação de overflow
func (a Amount) Mul(b Amount) (Amount, error) {
	return a.checked(new(uint256.Int).MulOverflow(&a.v, &b.v))
}

// Div faz divisão inteira (floor)
func (a Amount) Div(b Amount) (Amount, error) {
	if b.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	return Amount{v: *new(uint256.Int).Div(&a.v, &b.v)}, nil
}

func (a Amount) IsZero() bool { return a.v.IsZero() }

// Cmp retorna -1, 0 ou +1
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) LessThan(b Amount) bool    { return a.v.Lt(&b.v) }
func (a Amount) GreaterThan(b Amount) bool { return a.v.Gt(&b.v) }
func (a Amount) Equal(b Amount) bool       { return a.v.Eq(&b.v) }

func (a Amount) String() string { return a.v.Dec() }

// Float64 é aproximado; serve apenas para métricas
func (a Amount) Float64() float64 {
	f, _ := strconv.ParseFloat(a.v.Dec(), 64)
	return f
}

// MarshalJSON serializa como string decimal para não perder precisão em clientes JS
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON aceita string decimal ou número inteiro
func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value grava como texto numérico (coluna NUMERIC(39,0))
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan lê NUMERIC do Postgres (lib/pq entrega []byte)
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("scan amount %d: %w", v, ErrOverflow)
		}
		*a = NewAmount(uint64(v))
		return nil
	case nil:
		*a = Amount{}
		return nil
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
}

func (a *Amount) scanString(s string) error {
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
