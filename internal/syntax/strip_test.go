package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTypesAnnotations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "variable annotation",
			src:  "const x: number = 1;",
			want: "const x = 1;",
		},
		{
			name: "function parameter and return annotations",
			src:  "function add(a: number, b: number): number { return a + b; }",
			want: "function add(a, b) { return a + b; }",
		},
		{
			name: "optional parameter marker",
			src:  "function f(a?: number) { return a; }",
			want: "function f(a) { return a; }",
		},
		{
			name: "as cast",
			src:  "const y = x as number;",
			want: "const y = x;",
		},
		{
			name: "interface erased",
			src:  "interface Point { x: number; y: number }\nconst z = 1;",
			want: "\nconst z = 1;",
		},
		{
			name: "type alias erased",
			src:  "type ID = string;\nconst z = 1;",
			want: "\nconst z = 1;",
		},
		{
			name: "string contents untouched",
			src:  `const s = "a: b as c";`,
			want: `const s = "a: b as c";`,
		},
		{
			name: "line comment dropped, annotation-like text inside it ignored",
			src:  "const x = 1; // x: number",
			want: "const x = 1; ",
		},
		{
			name: "trailing non-null assertion erased",
			src:  "const y = maybeNull()!.value;",
			want: "const y = maybeNull().value;",
		},
		{
			name: "logical not is preserved",
			src:  "const y = !ready;",
			want: "const y = !ready;",
		},
		{
			name: "strict inequality is preserved",
			src:  "const y = a !== b;",
			want: "const y = a !== b;",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, stripTypes(tc.src))
		})
	}
}

func TestStartsKeywordBoundary(t *testing.T) {
	t.Parallel()
	assert.True(t, startsKeyword([]rune("type X = 1"), 0, "type"))
	assert.False(t, startsKeyword([]rune("typeof X"), 0, "type"))
	assert.False(t, startsKeyword([]rune("mytype X"), 2, "type"))
}
