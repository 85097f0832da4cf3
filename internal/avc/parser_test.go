package avc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/Eyevinn/mjpeg-h264-tools/internal"
	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264"
	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264/uvch264test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var lines []map[string]any
	scanner := bufio.NewScanner(bytes.NewBufferString(out))
	for scanner.Scan() {
		m := map[string]any{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m), scanner.Text())
		lines = append(lines, m)
	}
	return lines
}

func nalTypes(line map[string]any) []string {
	var types []string
	nalus, _ := line["nalus"].([]any)
	for _, n := range nalus {
		types = append(types, n.(map[string]any)["type"].(string))
	}
	return types
}

func TestParseAll(t *testing.T) {
	stream, _ := uvch264test.Stream(3, 16)
	stream = append(stream, uvch264test.PlainFrame()...)
	o := internal.CreateFullOptions(0)
	o.LogLevel = "panic"

	buf := bytes.Buffer{}
	err := ParseAll(context.TODO(), &buf, bytes.NewReader(stream), o)
	require.NoError(t, err)

	lines := jsonLines(t, buf.String())
	// SPS, PPS, 4 frames and statistics.
	require.Len(t, lines, 7)

	assert.Equal(t, "SPS", lines[0]["parameterSet"])
	assert.Equal(t, hex.EncodeToString(uvch264test.SPS), lines[0]["hex"])
	assert.Equal(t, "PPS", lines[1]["parameterSet"])
	assert.Equal(t, hex.EncodeToString(uvch264test.PPS), lines[1]["hex"])

	assert.Equal(t, float64(0), lines[2]["frame"])
	assert.Equal(t, []string{"SPS_7", "PPS_8", "IDR_5"}, nalTypes(lines[2]))
	assert.Equal(t, "[I]", lines[2]["imgType"])
	assert.Equal(t, []string{"NonIDR_1"}, nalTypes(lines[3]))
	assert.Equal(t, []string{"NonIDR_1"}, nalTypes(lines[4]))

	assert.Equal(t, true, lines[5]["dropped"])
	assert.Contains(t, lines[5]["error"], string(uvch264.KindMarkerNotFound))

	stats := lines[6]
	assert.Equal(t, "AVC", stats["streamType"])
	assert.Equal(t, float64(4), stats["frames"])
	assert.Equal(t, float64(1), stats["dropped"])
	assert.Equal(t, []any{"frames without APP4 H.264 payload dropped"}, stats["errors"])
}

func TestParseAllNaluFilter(t *testing.T) {
	stream, _ := uvch264test.Stream(2, 1024)
	o := internal.CreateFullOptions(0)
	o.ShowPS = false
	o.ShowStatistics = false
	o.NaluTypes = "5 7"

	buf := bytes.Buffer{}
	require.NoError(t, ParseAll(context.TODO(), &buf, bytes.NewReader(stream), o))
	lines := jsonLines(t, buf.String())
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"SPS_7", "IDR_5"}, nalTypes(lines[0]))
	assert.Nil(t, nalTypes(lines[1]))
}

func TestParseAllMaxFrames(t *testing.T) {
	stream, _ := uvch264test.Stream(5, 1024)
	o := internal.CreateFullOptions(2)
	o.ShowPS = false
	o.ShowStatistics = false

	buf := bytes.Buffer{}
	require.NoError(t, ParseAll(context.TODO(), &buf, bytes.NewReader(stream), o))
	assert.Len(t, jsonLines(t, buf.String()), 2)
}

func TestParsePS(t *testing.T) {
	stream, _ := uvch264test.Stream(3, 16)

	cases := []struct {
		name     string
		format   string
		expected []byte
	}{
		{"raw", internal.ExtradataRaw, uvch264.BuildExtradata(uvch264test.SPS, uvch264test.PPS)},
		{"annexb", internal.ExtradataAnnexB, uvch264test.AnnexB(uvch264test.SPS, uvch264test.PPS)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := internal.CreateFullOptions(0)
			o.ExtradataFormat = c.format
			buf := bytes.Buffer{}
			require.NoError(t, ParsePS(context.TODO(), &buf, bytes.NewReader(stream), o))

			lines := jsonLines(t, buf.String())
			require.Len(t, lines, 3)
			assert.Equal(t, "SPS", lines[0]["parameterSet"])
			assert.Equal(t, "PPS", lines[1]["parameterSet"])
			assert.Equal(t, c.format, lines[2]["format"])
			assert.Equal(t, hex.EncodeToString(c.expected), lines[2]["hex"])
			assert.Equal(t, float64(len(c.expected)), lines[2]["length"])
		})
	}
}

func TestParsePSVerbose(t *testing.T) {
	stream, _ := uvch264test.Stream(1, 1024)
	o := internal.CreateFullOptions(0)
	o.VerbosePSInfo = true
	o.ExtradataFormat = internal.ExtradataAVCC
	buf := bytes.Buffer{}
	require.NoError(t, ParsePS(context.TODO(), &buf, bytes.NewReader(stream), o))

	lines := jsonLines(t, buf.String())
	require.Len(t, lines, 3)
	details, ok := lines[0]["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(100), details["Profile"])
	assert.Contains(t, details, "Width")
	assert.Contains(t, details, "Height")
	assert.NotNil(t, lines[1]["details"])
	assert.Equal(t, internal.ExtradataAVCC, lines[2]["format"])
}

func TestParsePSWithoutParameterSets(t *testing.T) {
	stream := uvch264test.Frame(uvch264test.AnnexB(uvch264test.P), 1024)
	o := internal.CreateFullOptions(0)
	o.LogLevel = "panic"
	buf := bytes.Buffer{}
	require.NoError(t, ParsePS(context.TODO(), &buf, bytes.NewReader(stream), o))
	assert.Empty(t, buf.String())
}
