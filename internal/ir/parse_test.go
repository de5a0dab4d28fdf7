package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roundTripSrc = `func @main(%src, %dst) {
  %c = arith "const 0"
  loop %i = 0 to 10 step 2 iter(%acc = %c) -> (%sum) {
    %v = read %src[%i]
    write %dst[%i], %v
    yield %acc
  }
  return %sum
}
`

func TestParse_RoundTrip(t *testing.T) {
	m, err := Parse(roundTripSrc)
	require.NoError(t, err)

	first := m.Print()
	m2, err := Parse(first)
	require.NoError(t, err)

	assert.Equal(t, first, m2.Print(), "print → parse → print must be stable")
}

func TestParse_Structure(t *testing.T) {
	m, err := Parse(roundTripSrc)
	require.NoError(t, err)

	f, ok := m.Symbol("main")
	require.True(t, ok)
	loops := m.CollectKind(f, KindLoop)
	require.Len(t, loops, 1)

	l := m.Get(loops[0])
	assert.Equal(t, ConstBound(0), l.Lower)
	assert.Equal(t, ConstBound(10), l.Upper)
	assert.Equal(t, ConstBound(2), l.Step)
	require.Len(t, l.IterArgs, 1)
	require.Len(t, l.Body, 3)
	assert.Equal(t, KindMemRead, m.Get(l.Body[0]).Kind)
	assert.Equal(t, KindMemWrite, m.Get(l.Body[1]).Kind)
	assert.Equal(t, KindYield, m.Get(l.Body[2]).Kind)
}

func TestParse_SymbolicBoundsAndOffsets(t *testing.T) {
	src := `func @main(%buf, %n) {
  loop %i = 0 to %n step 1 {
    %v = read %buf[%i + 3]
    %g = gather %buf[%v]
    write %buf[%i + -1], %v
    yield
  }
}
`
	m, err := Parse(src)
	require.NoError(t, err)

	f, _ := m.Symbol("main")
	l := m.Get(m.CollectKind(f, KindLoop)[0])
	assert.False(t, l.Upper.Known)
	assert.Equal(t, m.Get(f).Params[1], l.Upper.Sym)

	rd := m.Get(l.Body[0])
	assert.Equal(t, int64(3), rd.Offset)
	wr := m.Get(l.Body[2])
	assert.Equal(t, int64(-1), wr.Offset)
}

func TestParse_CallsAndMultipleFuncs(t *testing.T) {
	src := `func @body(%x) {
  return %x
}

func @main(%a) {
  %r = call @body(%a)
  return %r
}
`
	m, err := Parse(src)
	require.NoError(t, err)

	main, ok := m.Symbol("main")
	require.True(t, ok)
	calls := m.CollectKind(main, KindCall)
	require.Len(t, calls, 1)
	assert.Equal(t, "body", m.Get(calls[0]).Name)
	require.Len(t, m.Funcs(), 2)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"undefined value", "func @f() {\n  return %x\n}\n", "undefined value"},
		{"unmatched close", "}\n", "unmatched }"},
		{"unclosed region", "func @f() {\n", "unclosed region"},
		{"unknown op", "func @f() {\n  %v = frobnicate %a\n}\n", "unknown operation"},
		{"redefined value", "func @f(%a) {\n  %a = arith \"x\"\n}\n", "redefined"},
		{"duplicate func", "func @f() {\n}\nfunc @f() {\n}\n", "already defined"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
