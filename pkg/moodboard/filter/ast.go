package filter

import "fmt"

type expr interface {
	eval(Env) (Value, error)
}

type literalExpr struct {
	val Value
}

func (e *literalExpr) eval(Env) (Value, error) { return e.val, nil }

type identExpr struct {
	name string
}

func (e *identExpr) eval(env Env) (Value, error) {
	v, ok := env.Lookup(e.name)
	if !ok {
		return Value{}, &EvalError{Msg: fmt.Sprintf("unknown column %q", e.name)}
	}
	return v, nil
}

type notExpr struct {
	inner expr
}

func (e *notExpr) eval(env Env) (Value, error) {
	v, err := e.inner.eval(env)
	if err != nil {
		return Value{}, err
	}
	if v.Kind != KindBool {
		return Value{}, &EvalError{Msg: fmt.Sprintf("cannot negate a %s", v.Kind)}
	}
	return Bool(!v.Bool), nil
}

type logicalOp int

const (
	opAnd logicalOp = iota
	opOr
)

type logicalExpr struct {
	op          logicalOp
	left, right expr
}

func (e *logicalExpr) eval(env Env) (Value, error) {
	l, err := e.left.eval(env)
	if err != nil {
		return Value{}, err
	}
	if l.Kind != KindBool {
		return Value{}, &EvalError{Msg: fmt.Sprintf("left side of and/or is a %s, not a boolean", l.Kind)}
	}

	// Short circuit.
	if e.op == opAnd && !l.Bool {
		return Bool(false), nil
	}
	if e.op == opOr && l.Bool {
		return Bool(true), nil
	}

	r, err := e.right.eval(env)
	if err != nil {
		return Value{}, err
	}
	if r.Kind != KindBool {
		return Value{}, &EvalError{Msg: fmt.Sprintf("right side of and/or is a %s, not a boolean", r.Kind)}
	}
	return Bool(r.Bool), nil
}

type cmpOp int

const (
	cmpEq cmpOp = iota
	cmpNeq
	cmpLt
	cmpLte
	cmpGt
	cmpGte
)

var cmpNames = map[cmpOp]string{
	cmpEq:  "==",
	cmpNeq: "!=",
	cmpLt:  "<",
	cmpLte: "<=",
	cmpGt:  ">",
	cmpGte: ">=",
}

type cmpExpr struct {
	op          cmpOp
	left, right expr
}

func (e *cmpExpr) eval(env Env) (Value, error) {
	l, err := e.left.eval(env)
	if err != nil {
		return Value{}, err
	}
	r, err := e.right.eval(env)
	if err != nil {
		return Value{}, err
	}

	if l.Kind != r.Kind {
		return Value{}, &EvalError{
			Msg: fmt.Sprintf("cannot compare %s with %s using %s", l.Kind, r.Kind, cmpNames[e.op]),
		}
	}

	switch e.op {
	case cmpEq:
		return Bool(equal(l, r)), nil
	case cmpNeq:
		return Bool(!equal(l, r)), nil
	}

	// Ordering comparisons need an ordered type.
	switch l.Kind {
	case KindNumber:
		return Bool(orderedCmp(e.op, l.Num, r.Num)), nil
	case KindString:
		return Bool(orderedCmp(e.op, l.Str, r.Str)), nil
	}
	return Value{}, &EvalError{Msg: fmt.Sprintf("%s is not defined for booleans", cmpNames[e.op])}
}

func equal(l, r Value) bool {
	switch l.Kind {
	case KindString:
		return l.Str == r.Str
	case KindNumber:
		return l.Num == r.Num
	case KindBool:
		return l.Bool == r.Bool
	}
	return false
}

func orderedCmp[T interface{ ~float64 | ~string }](op cmpOp, l, r T) bool {
	switch op {
	case cmpLt:
		return l < r
	case cmpLte:
		return l <= r
	case cmpGt:
		return l > r
	case cmpGte:
		return l >= r
	}
	return false
}

type inExpr struct {
	left expr
	list []Value
}

func (e *inExpr) eval(env Env) (Value, error) {
	l, err := e.left.eval(env)
	if err != nil {
		return Value{}, err
	}
	for _, item := range e.list {
		if item.Kind != l.Kind {
			return Value{}, &EvalError{
				Msg: fmt.Sprintf("membership list holds a %s but the operand is a %s", item.Kind, l.Kind),
			}
		}
		if equal(l, item) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}
