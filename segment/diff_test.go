package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDiffSplitInvariant(t *testing.T) {
	cases := [][2]string{
		{"hello world", "hello there"},
		{"<think>a</think>content", "<think>b</think>content"},
		{"", "abc"},
		{"abc", ""},
		{"same", "same"},
		{"<tool_call>foofoo(first)</tool_call>", "<tool_call>barbar(first)</tool_call>"},
	}
	for _, c := range cases {
		d := CalculateDiffSplit(c[0], c[1])
		assert.Equal(t, c[0], d.Prefix+d.Left+d.Suffix, "A reconstruction for %q/%q", c[0], c[1])
		assert.Equal(t, c[1], d.Prefix+d.Right+d.Suffix, "B reconstruction for %q/%q", c[0], c[1])
	}
}

func TestCalculateDiffSplitIdempotent(t *testing.T) {
	d := CalculateDiffSplit("identical string", "identical string")
	assert.Equal(t, "identical string", d.Prefix)
	assert.Equal(t, "", d.Left)
	assert.Equal(t, "", d.Right)
	assert.Equal(t, "", d.Suffix)
}

func TestCalculateDiffSplitTagBoundaryCorrection(t *testing.T) {
	// Reasoning content present vs absent: the opener "<think>" must not
	// be split mid-tag into the common prefix when only one side has the
	// closing marker adjacent.
	a := "<think>THOUGHT</think>after"
	b := "after"
	d := CalculateDiffSplit(a, b)
	assert.Equal(t, a, d.Prefix+d.Left+d.Suffix)
	assert.Equal(t, b, d.Prefix+d.Right+d.Suffix)
	// The common suffix "after" should be fully recovered, not truncated
	// mid "<think>".
	assert.Equal(t, "after", d.Suffix)
}

func TestUntilCommonPrefixAndAfterCommonSuffix(t *testing.T) {
	full := "role: assistant\nHello world\nEND"
	a := "Hello world\nEND"
	b := "Hello there\nEND"
	assert.Equal(t, "role: assistant\n", UntilCommonPrefix(full, a, b))
	assert.Equal(t, "", AfterCommonSuffix(full, a, b))

	full2 := "PREFIX\nEND marker"
	assert.Equal(t, "", UntilCommonPrefix(full2, "xxx", "yyy"))
}

func TestFindStringDifference(t *testing.T) {
	assert.Equal(t, "_begin|>", FindStringDifference("<|reasoning", "<|reasoning_begin|>"))
	assert.Equal(t, "", FindStringDifference("abc", "abc"))
}
