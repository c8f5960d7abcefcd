// Copyright © 2024 The ELPS authors

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerClasses(t *testing.T) {
	src := "(a \"b;)\" ; c)\n[d])"
	var (
		classes []Class
		depths  []int
	)
	s := NewScanner(src)
	for s.Next() {
		classes = append(classes, s.Class())
		depths = append(depths, s.Depth())
	}
	require.Len(t, classes, len([]rune(src)))
	assert.Equal(t, Normal, classes[0])
	assert.Equal(t, 1, depths[0])
	// the string literal, quotes included
	for i := 3; i <= 7; i++ {
		assert.Equal(t, InString, classes[i], "char %d", i)
	}
	// the ) inside the string did not close the list
	assert.Equal(t, 1, depths[6])
	// the comment runs to the end of the line
	for i := 9; i <= 12; i++ {
		assert.Equal(t, InComment, classes[i], "char %d", i)
	}
	assert.Equal(t, 1, depths[12])
	assert.Equal(t, Normal, classes[13])
	assert.Equal(t, 2, depths[14])
	assert.Equal(t, 0, depths[len(depths)-1])
}

func TestScannerEscapes(t *testing.T) {
	tests := []struct {
		src   string
		depth int
	}{
		{`("a\"b")`, 0},
		{`("a\\" b)`, 0},
		{`(f #\()`, 0},
		{`(f #\" x)`, 0},
		{`(f #\;)`, 0},
		{`(f "(")`, 0},
		{`(f ; )` + "\n", 1},
	}
	for i, test := range tests {
		s := NewScanner(test.src)
		for s.Next() {
		}
		assert.Equal(t, test.depth, s.Depth(), "test %d: %s", i, test.src)
		assert.False(t, s.InString(), "test %d: %s", i, test.src)
	}
}

func TestScannerLines(t *testing.T) {
	s := NewScanner("a\nb\n\nc")
	var lines []int
	for s.Next() {
		if s.Char() != '\n' {
			lines = append(lines, s.Line())
		}
	}
	assert.Equal(t, []int{1, 2, 4}, lines)
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		src      string
		balanced bool
	}{
		{``, true},
		{`(a [b] c)`, true},
		{`(a [b) c]`, true},
		{`(a (b c)`, false},
		{`(a b))`, false},
		{`) (`, false},
		{`(a "b)`, false},
		{`(a ; )` + "\n)", true},
		{`(list #\( #\[)`, true},
		{`#\)`, true},
	}
	for i, test := range tests {
		assert.Equal(t, test.balanced, Balanced(test.src), "test %d: %s", i, test.src)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		src   string
		texts []string
		kinds []Kind
	}{
		{"", nil, nil},
		{"  \n ; only a comment\n", nil, nil},
		{
			"(define (f x) (* x 2))\n(check-expect (f 2) 4)\n(f 3)",
			[]string{"(define (f x) (* x 2))", "(check-expect (f 2) 4)", "(f 3)"},
			[]Kind{Definition, Test, Other},
		},
		{
			"(define x 1) (define-struct p (a b))",
			[]string{"(define x 1)", "(define-struct p (a b))"},
			[]Kind{Definition, Definition},
		},
		{
			"(define (g y)\n  ; doubles y\n  (+ y y))",
			[]string{"(define (g y)\n  \n  (+ y y))"},
			[]Kind{Definition},
		},
		{
			"(check-within (sqrt 2) 1.414 0.01)",
			[]string{"(check-within (sqrt 2) 1.414 0.01)"},
			[]Kind{Test},
		},
		{
			"(defines x)(check-expects 1 1)",
			[]string{"(defines x)", "(check-expects 1 1)"},
			[]Kind{Other, Other},
		},
		{
			"(map (λ (x) x) '(1 2))",
			[]string{"(map (lambda (x) x) '(1 2))"},
			[]Kind{Other},
		},
		{
			`(display "λ; not a comment")`,
			[]string{`(display "λ; not a comment")`},
			[]Kind{Other},
		},
		{
			"42 x '(1 2) \"str\" #t",
			[]string{"42", "x", "'(1 2)", `"str"`, "#t"},
			[]Kind{Other, Other, Other, Other, Other},
		},
		{
			"(define x 1)\n(define (broken y)\n  (+ y",
			[]string{"(define x 1)"},
			[]Kind{Definition},
		},
		{
			"(list a;c\nb)",
			[]string{"(list a\nb)"},
			[]Kind{Other},
		},
		{
			"[cond [else 1]]",
			[]string{"[cond [else 1]]"},
			[]Kind{Other},
		},
		{
			"(define x 1) \"open",
			[]string{"(define x 1)"},
			[]Kind{Definition},
		},
		{
			")\n(define x 1)\n(+ x 1)",
			nil,
			nil,
		},
		{
			"(define x 1)\n]\n(+ x 1)",
			[]string{"(define x 1)"},
			[]Kind{Definition},
		},
		{
			"#\\( (define z 1)",
			[]string{"#\\(", "(define z 1)"},
			[]Kind{Other, Definition},
		},
		{
			"#\\) #\\space #\\  x",
			[]string{"#\\)", "#\\space", "#\\ ", "x"},
			[]Kind{Other, Other, Other, Other},
		},
		{
			"(list #\\) #\\( #\\;)",
			[]string{"(list #\\) #\\( #\\;)"},
			[]Kind{Other},
		},
	}
	for i, test := range tests {
		forms := Split(test.src)
		assert.Equal(t, len(test.texts), len(forms), "test %d", i)
		for j, f := range forms {
			if j >= len(test.texts) {
				break
			}
			assert.Equal(t, test.texts[j], f.Text, "test %d form %d", i, j)
			assert.Equal(t, test.kinds[j], f.Kind, "test %d form %d", i, j)
			assert.True(t, Balanced(f.Text), "test %d form %d", i, j)
		}
	}
}

func TestSplitLocations(t *testing.T) {
	src := "; header\n(define x 1)\n\n  (f x)"
	forms := Split(src)
	require.Len(t, forms, 2)
	assert.Equal(t, 9, forms[0].Offset)
	assert.Equal(t, 2, forms[0].Line)
	assert.Equal(t, 25, forms[1].Offset)
	assert.Equal(t, 4, forms[1].Line)
}

func TestSplitRoundTrip(t *testing.T) {
	srcs := []string{
		"(define (f x) (* x 2))\n(check-expect (f 2) 4)\n(f 3)",
		"(define-struct posn (x y))\n; comment\n(posn-x (make-posn 1 2))",
		"42 'sym \"s\" (local [(define a 1)] a)",
	}
	for i, src := range srcs {
		forms := Split(src)
		again := Split(Join(forms))
		assert.Equal(t, Texts(forms), Texts(again), "test %d", i)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Definition, Classify("(define x 1)"))
	assert.Equal(t, Definition, Classify("  (define-struct a (b))"))
	assert.Equal(t, Definition, Classify("(define\n(f) 1)"))
	assert.Equal(t, Test, Classify("(check-expect 1 1)"))
	assert.Equal(t, Test, Classify("(check-within)"))
	assert.Equal(t, Other, Classify("(check-error (f))"))
	assert.Equal(t, Other, Classify("(definitely)"))
	assert.Equal(t, Other, Classify("[define x 1]"))
}

func TestEvalOrder(t *testing.T) {
	forms := Split("(f 1)\n(define (f x) x)\n(check-expect (f 1) 1)\n(define y 2)")
	ordered := EvalOrder(forms)
	assert.Equal(t, []string{
		"(define (f x) x)",
		"(define y 2)",
		"(f 1)",
		"(check-expect (f 1) 1)",
	}, Texts(ordered))
}
