package types

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriBool_CoercesUpstreamVariants(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{"bool true", `{"group_to_other": true}`, true},
		{"bool false", `{"group_to_other": false}`, false},
		{"string True", `{"group_to_other": "True"}`, true},
		{"string false", `{"group_to_other": "false"}`, false},
		{"number one", `{"group_to_other": 1}`, true},
		{"number zero", `{"group_to_other": 0}`, false},
		{"null", `{"group_to_other": null}`, false},
		{"absent", `{}`, false},
		{"junk string", `{"group_to_other": "yes"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Sport
			require.NoError(t, sonic.Unmarshal([]byte(tt.json), &s))
			assert.Equal(t, tt.want, bool(s.GroupToOther))
		})
	}
}

func TestFlexID_StringAndNumberForms(t *testing.T) {
	var m Match
	require.NoError(t, sonic.Unmarshal([]byte(`{"id": "abc"}`), &m))
	assert.Equal(t, FlexID("abc"), m.ID)

	require.NoError(t, sonic.Unmarshal([]byte(`{"id": 42}`), &m))
	assert.Equal(t, FlexID("42"), m.ID)

	require.NoError(t, sonic.Unmarshal([]byte(`{"id": 42.0}`), &m))
	assert.Equal(t, FlexID("42"), m.ID, "integral floats collapse to the integer form")
}

func TestStream_PlayURLPrefersMediaURL(t *testing.T) {
	s := Stream{MediaURL: "http://x/a.m3u8", DirectURL: "http://x/b.m3u8"}
	assert.Equal(t, "http://x/a.m3u8", s.PlayURL())

	s.MediaURL = ""
	assert.Equal(t, "http://x/b.m3u8", s.PlayURL())
	assert.True(t, s.Playable())

	s.DirectURL = ""
	assert.False(t, s.Playable())
}

func TestMatch_PlayableStreamsPreservesOrder(t *testing.T) {
	m := Match{Streams: []Stream{
		{URL: "http://embed/1"},
		{MediaURL: "http://x/1.m3u8"},
		{DirectURL: "http://x/2.m3u8"},
	}}
	got := m.PlayableStreams()
	require.Len(t, got, 2)
	assert.Equal(t, "http://x/1.m3u8", got[0].MediaURL)
	assert.Equal(t, "http://x/2.m3u8", got[1].DirectURL)
}
