// Package calculator implements a four-function pocket calculator with a
// running history of completed calculations.
package calculator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operator is one of the four arithmetic operations.
type Operator string

const (
	Add      Operator = "+"
	Subtract Operator = "-"
	Multiply Operator = "×"
	Divide   Operator = "÷"
)

// ParseOperator accepts the display symbols and their ASCII spellings.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "+":
		return Add, nil
	case "-", "−":
		return Subtract, nil
	case "×", "*", "x":
		return Multiply, nil
	case "÷", "/":
		return Divide, nil
	}
	return "", fmt.Errorf("invalid operator %q", s)
}

func (op Operator) apply(a, b float64) float64 {
	switch op {
	case Add:
		return a + b
	case Subtract:
		return a - b
	case Multiply:
		return a * b
	case Divide:
		return a / b
	}
	return b
}

// Operand is a stored left-hand value. JSON has no Infinity or NaN, so
// non-finite operands are written with their display spelling.
type Operand float64

func (o Operand) MarshalJSON() ([]byte, error) {
	v := float64(o)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(FormatNumber(v))
	}
	return json.Marshal(v)
}

func (o *Operand) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		// ParseFloat understands "Infinity", "-Infinity" and "NaN".
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid operand %q", s)
		}
		*o = Operand(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid operand: %w", err)
	}
	*o = Operand(v)
	return nil
}

// Step is one completed calculation.
type Step struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// Calculator holds the display and pending operation.
type Calculator struct {
	Display           string   `json:"display"`
	Previous          *Operand `json:"previous,omitempty"`
	Operation         Operator `json:"operation,omitempty"`
	WaitingForOperand bool     `json:"waitingForOperand"`
	History           []Step   `json:"history"`
}

// New returns a cleared calculator.
func New() *Calculator {
	return &Calculator{Display: "0", History: []Step{}}
}

// InputDigit appends a digit to the display, or starts a new operand.
func (c *Calculator) InputDigit(d string) error {
	if len(d) != 1 || d[0] < '0' || d[0] > '9' {
		return fmt.Errorf("invalid digit %q", d)
	}
	switch {
	case c.WaitingForOperand:
		c.Display = d
		c.WaitingForOperand = false
	case c.Display == "0":
		c.Display = d
	default:
		c.Display += d
	}
	return nil
}

// InputDecimal adds a decimal point if the operand has none.
func (c *Calculator) InputDecimal() {
	if c.WaitingForOperand {
		c.Display = "0."
		c.WaitingForOperand = false
		return
	}
	if !strings.Contains(c.Display, ".") {
		c.Display += "."
	}
}

// InputOperation records op, first folding any pending operation so chains
// evaluate left to right.
func (c *Calculator) InputOperation(op Operator) {
	value := Operand(c.displayValue())
	if c.Previous == nil {
		c.Previous = &value
	} else if c.Operation != "" {
		result := Operand(c.Operation.apply(float64(*c.Previous), float64(value)))
		c.Display = FormatNumber(float64(result))
		c.Previous = &result
	}
	c.WaitingForOperand = true
	c.Operation = op
}

// Equals completes the pending operation and records it in the history.
func (c *Calculator) Equals() {
	if c.Previous == nil || c.Operation == "" {
		return
	}
	value := c.displayValue()
	result := c.Operation.apply(float64(*c.Previous), value)
	c.History = append(c.History, Step{
		Expression: fmt.Sprintf("%s %s %s", FormatNumber(float64(*c.Previous)), c.Operation, FormatNumber(value)),
		Result:     FormatNumber(result),
	})
	c.Display = FormatNumber(result)
	c.Previous = nil
	c.Operation = ""
	c.WaitingForOperand = true
}

// ClearAll resets everything except the history.
func (c *Calculator) ClearAll() {
	c.Display = "0"
	c.Previous = nil
	c.Operation = ""
	c.WaitingForOperand = false
}

// ClearEntry resets the display only.
func (c *Calculator) ClearEntry() {
	c.Display = "0"
}

// ClearHistory drops recorded calculations.
func (c *Calculator) ClearHistory() {
	c.History = []Step{}
}

func (c *Calculator) displayValue() float64 {
	v, err := strconv.ParseFloat(c.Display, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatNumber renders v the way a browser stringifies a number.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		// Go pads the exponent to two digits; browsers do not.
		s = strings.Replace(s, "e+0", "e+", 1)
		s = strings.Replace(s, "e-0", "e-", 1)
		return s
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
