package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentizeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain text only",
		"<think>hello</think>",
		"before<tool_call>{\"a\":1}</tool_call>after",
		"[TOOL_CALLS]name[ARGS]{}",
		"<|START_THINKING|>thought<|END_THINKING|>content",
		"<｜tool▁call▁begin｜>foo<｜tool▁call▁end｜>",
		"unmatched < bracket stays text",
		"unmatched ] bracket stays text",
	}
	for _, c := range cases {
		segs := Segmentize(c)
		assert.Equal(t, c, Join(segs), "round trip for %q", c)
	}
}

func TestSegmentizeMarkerDetection(t *testing.T) {
	segs := Segmentize("a<think>b</think>c")
	assert.Len(t, segs, 5)
	assert.Equal(t, Text, segs[0].Kind)
	assert.Equal(t, "a", segs[0].Value)
	assert.Equal(t, Marker, segs[1].Kind)
	assert.Equal(t, "<think>", segs[1].Value)
	assert.Equal(t, Text, segs[2].Kind)
	assert.Equal(t, "b", segs[2].Value)
	assert.Equal(t, Marker, segs[3].Kind)
	assert.Equal(t, "</think>", segs[3].Value)
	assert.Equal(t, Text, segs[4].Kind)
	assert.Equal(t, "c", segs[4].Value)
}

func TestCountMarkersAndFind(t *testing.T) {
	segs := Segmentize("<a>x<b>y<a>")
	assert.Equal(t, 3, CountMarkers(segs))
	assert.Equal(t, 0, FirstMarkerContaining(segs, "<a>"))
	assert.Equal(t, -1, FirstMarkerContaining(segs, "<c>"))
	assert.Equal(t, 1, FirstSegmentContaining(segs, "x"))
}

func TestStripEOSToken(t *testing.T) {
	assert.Equal(t, "hi", StripEOSToken("hi<|eot_id|>"))
	assert.Equal(t, "hi", StripEOSToken("hi<｜end▁of▁sentence｜>"))
	assert.Equal(t, "hi", StripEOSToken("hi"))
}
