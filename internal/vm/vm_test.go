package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardinius/golox/internal/vm"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	machine := vm.New(vm.WithStdout(&out))
	err := machine.Interpret(source)
	return out.String(), err
}

func TestInterpretPrintsExpectedOutput(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name   string
		source string
		want   string
	}{
		{"arithmetic precedence", "print 2 + 3 * 4;", "14\n"},
		{"string concat", `print "foo" + "bar";`, "foobar\n"},
		{"string identity equality", `print "ab" == ("a" + "b");`, "true\n"},
		{"boolean logic", "print !false and true;", "true\n"},
		{"comparison", "print 1 < 2;", "true\n"},
		{"global mutation", "var a = 1; a = a + 1; print a;", "2\n"},
		{"block scoping", "var a = 1; { var a = 2; print a; } print a;", "2\n1\n"},
		{"if else", `if (false) print "yes"; else print "no";`, "no\n"},
		{
			"closure counter",
			`fun make() { var x = 0; fun inc() { x = x + 1; return x; } return inc; }
			 var f = make(); print f(); print f();`,
			"1\n2\n",
		},
		{
			"class init and method",
			`class F { init(a) { this.a = a; } g() { return this.a; } } print F(7).g();`,
			"7\n",
		},
		{
			"super invoke",
			`class A { m() { print "A"; } } class B < A { m() { super.m(); print "B"; } } B().m();`,
			"A\nB\n",
		},
		{"native clock returns number", "print type(clock());", "number\n"},
		{"native len", `print len("hello");`, "5\n"},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := run(t, tc.source)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInterpretRuntimeErrors(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"undefined variable", "print undefined_thing;", "Undefined variable"},
		{"add number and nil", "print 1 + nil;", "Operands must be two numbers or two strings."},
		{"negate string", `print -"x";`, "Operand must be a number."},
		{"call non-callable", "var a = 1; a();", "Can only call functions and classes."},
		{"property on non-instance", "var a = 1; print a.field;", "Only instances have properties."},
		{"undefined property", "class A {} print A().field;", "Undefined property 'field'."},
		{"arity mismatch", "fun f(a) {} f();", "Expected 1 arguments but got 0."},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := run(t, tc.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRuntimeErrorStackTrace(t *testing.T) {
	t.Parallel()

	source := `fun a() { b(); }
fun b() { c(); }
fun c() { return 1 + nil; }
a();`

	_, err := run(t, source)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "in c()")
	assert.Contains(t, msg, "in b()")
	assert.Contains(t, msg, "in a()")
	assert.Contains(t, msg, "in script")
}

func TestStackOverflowAtDeepRecursion(t *testing.T) {
	t.Parallel()

	source := "fun recurse() { return recurse(); } recurse();"
	_, err := run(t, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Stack overflow.")
}

func TestGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	machine := vm.New(vm.WithStdout(&out))

	require.NoError(t, machine.Interpret("var a = 1;"))
	require.NoError(t, machine.Interpret("a = a + 1;"))
	require.NoError(t, machine.Interpret("print a;"))

	assert.Equal(t, "2\n", out.String())
}

func TestGCStressModeMatchesNormalOutput(t *testing.T) {
	t.Parallel()

	source := `class Node {
		init(v) { this.v = v; this.next = nil; }
	}
	fun build(n) {
		var head = nil;
		for (var i = 0; i < n; i = i + 1) {
			var node = Node(i);
			node.next = head;
			head = node;
		}
		return head;
	}
	var n = build(50);
	while (n != nil) {
		print n.v;
		n = n.next;
	}`

	var normal, stressed bytes.Buffer
	require.NoError(t, vm.New(vm.WithStdout(&normal)).Interpret(source))
	require.NoError(t, vm.New(vm.WithStdout(&stressed), vm.WithStressGC(true)).Interpret(source))

	assert.Equal(t, normal.String(), stressed.String())
}

func TestTraceOptionWritesToStderr(t *testing.T) {
	t.Parallel()

	var stderr strings.Builder
	machine := vm.New(vm.WithStdout(&bytes.Buffer{}), vm.WithStderr(&stderr), vm.WithTrace(true))
	require.NoError(t, machine.Interpret("print 1;"))

	assert.Contains(t, stderr.String(), "OP_PRINT")
}
