package bytecode

// OpCode identifies a single VM instruction.
type OpCode byte

const (
	OP_CONSTANT OpCode = iota
	OP_CONSTANT_LONG
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_POP

	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_GLOBAL
	OP_DEFINE_GLOBAL
	OP_SET_GLOBAL
	OP_GET_UPVALUE
	OP_SET_UPVALUE
	OP_CLOSE_UPVALUE
	OP_GET_PROPERTY
	OP_SET_PROPERTY
	OP_GET_SUPER

	OP_EQUAL
	OP_GREATER
	OP_LESS
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_NOT
	OP_NEGATE

	OP_PRINT
	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_LOOP

	OP_CALL
	OP_INVOKE
	OP_SUPER_INVOKE
	OP_CLOSURE
	OP_RETURN

	OP_CLASS
	OP_INHERIT
	OP_METHOD
)

var opNames = [...]string{
	OP_CONSTANT:      "OP_CONSTANT",
	OP_CONSTANT_LONG: "OP_CONSTANT_LONG",
	OP_NIL:           "OP_NIL",
	OP_TRUE:          "OP_TRUE",
	OP_FALSE:         "OP_FALSE",
	OP_POP:           "OP_POP",

	OP_GET_LOCAL:     "OP_GET_LOCAL",
	OP_SET_LOCAL:     "OP_SET_LOCAL",
	OP_GET_GLOBAL:    "OP_GET_GLOBAL",
	OP_DEFINE_GLOBAL: "OP_DEFINE_GLOBAL",
	OP_SET_GLOBAL:    "OP_SET_GLOBAL",
	OP_GET_UPVALUE:   "OP_GET_UPVALUE",
	OP_SET_UPVALUE:   "OP_SET_UPVALUE",
	OP_CLOSE_UPVALUE: "OP_CLOSE_UPVALUE",
	OP_GET_PROPERTY:  "OP_GET_PROPERTY",
	OP_SET_PROPERTY:  "OP_SET_PROPERTY",
	OP_GET_SUPER:     "OP_GET_SUPER",

	OP_EQUAL:    "OP_EQUAL",
	OP_GREATER:  "OP_GREATER",
	OP_LESS:     "OP_LESS",
	OP_ADD:      "OP_ADD",
	OP_SUBTRACT: "OP_SUBTRACT",
	OP_MULTIPLY: "OP_MULTIPLY",
	OP_DIVIDE:   "OP_DIVIDE",
	OP_NOT:      "OP_NOT",
	OP_NEGATE:   "OP_NEGATE",

	OP_PRINT:         "OP_PRINT",
	OP_JUMP:          "OP_JUMP",
	OP_JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	OP_LOOP:          "OP_LOOP",

	OP_CALL:         "OP_CALL",
	OP_INVOKE:       "OP_INVOKE",
	OP_SUPER_INVOKE: "OP_SUPER_INVOKE",
	OP_CLOSURE:      "OP_CLOSURE",
	OP_RETURN:       "OP_RETURN",

	OP_CLASS:   "OP_CLASS",
	OP_INHERIT: "OP_INHERIT",
	OP_METHOD:  "OP_METHOD",
}

// String implements fmt.Stringer.
func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "OP_UNKNOWN"
}
