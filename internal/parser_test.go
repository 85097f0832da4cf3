package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264"
	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264/uvch264test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietOptions() Options {
	o := CreateFullOptions(0)
	o.LogLevel = "panic"
	return o
}

func TestDemuxH264(t *testing.T) {
	stream, aus := uvch264test.Stream(4, 20)
	stream = append(uvch264test.PlainFrame(), stream...)
	o := quietOptions()
	o.ExtradataOut = filepath.Join(t.TempDir(), "extradata.bin")

	text := bytes.Buffer{}
	video := bytes.Buffer{}
	err := Demux(context.TODO(), &text, &video, bytes.NewReader(stream), o)
	require.NoError(t, err)

	require.Equal(t, bytes.Join(aus, nil), video.Bytes())

	extradata, err := os.ReadFile(o.ExtradataOut)
	require.NoError(t, err)
	require.Equal(t, uvch264.BuildExtradata(uvch264test.SPS, uvch264test.PPS), extradata)

	stats := StreamStatistics{}
	require.NoError(t, json.Unmarshal(text.Bytes(), &stats))
	assert.Equal(t, 5, stats.Frames)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 0, stats.Degraded)
	assert.Equal(t, int64(len(video.Bytes())), stats.BytesOut)
	assert.Equal(t, int64(len(aus[1])), stats.MinSize)
	assert.Equal(t, int64(len(aus[0])), stats.MaxSize)
}

func TestDemuxMaxFrames(t *testing.T) {
	stream, aus := uvch264test.Stream(4, 1024)
	o := quietOptions()
	o.MaxNrFrames = 2
	o.ShowStatistics = false

	text := bytes.Buffer{}
	video := bytes.Buffer{}
	require.NoError(t, Demux(context.TODO(), &text, &video, bytes.NewReader(stream), o))
	assert.Equal(t, bytes.Join(aus[:2], nil), video.Bytes())
	assert.Empty(t, text.String())
}

func TestDemuxCancelled(t *testing.T) {
	stream, _ := uvch264test.Stream(4, 1024)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	video := bytes.Buffer{}
	require.NoError(t, Demux(ctx, &bytes.Buffer{}, &video, bytes.NewReader(stream), quietOptions()))
	assert.Zero(t, video.Len())
}

func TestDemuxBadOptions(t *testing.T) {
	stream, _ := uvch264test.Stream(1, 1024)

	o := quietOptions()
	o.Format = "mkv"
	err := Demux(context.TODO(), &bytes.Buffer{}, &bytes.Buffer{}, bytes.NewReader(stream), o)
	require.ErrorContains(t, err, "unknown output format")

	o = quietOptions()
	o.LogLevel = "loud"
	err = Demux(context.TODO(), &bytes.Buffer{}, &bytes.Buffer{}, bytes.NewReader(stream), o)
	require.ErrorContains(t, err, "invalid log level")
}

func TestDemuxTS(t *testing.T) {
	stream, _ := uvch264test.Stream(3, 64)
	o := quietOptions()
	o.Format = FormatTS
	o.ShowStatistics = false

	video := bytes.Buffer{}
	require.NoError(t, Demux(context.TODO(), &bytes.Buffer{}, &video, bytes.NewReader(stream), o))
	require.NotZero(t, video.Len())
	require.Zero(t, video.Len()%PacketSize)

	infos, err := ReadTSStreamInfo(bytes.NewReader(video.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []ElementaryStreamInfo{{PID: VideoPID, Codec: "AVC", Type: "video"}}, infos)

	file := filepath.Join(t.TempDir(), "out.ts")
	require.NoError(t, os.WriteFile(file, video.Bytes(), 0644))
	text := bytes.Buffer{}
	require.NoError(t, PrintTSStreamInfo(&text, file, o))
	assert.Equal(t, `{"pid":256,"codec":"AVC","type":"video"}`+"\n", text.String())
}

func TestForEachFrameReportsDrops(t *testing.T) {
	stream, _ := uvch264test.Stream(2, 1024)
	stream = append(stream, uvch264test.PlainFrame()...)
	flt, _, err := NewFilter(quietOptions(), &bytes.Buffer{})
	require.NoError(t, err)

	var dropped []int
	var sizes []int
	err = ForEachFrame(context.TODO(), bytes.NewReader(stream), quietOptions(), flt,
		func(nr int, frame []byte, pkt *uvch264.Packet, err error) error {
			if err != nil {
				require.ErrorIs(t, err, uvch264.ErrMarkerNotFound)
				require.Nil(t, pkt)
				dropped = append(dropped, nr)
				return nil
			}
			sizes = append(sizes, len(pkt.Data))
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, dropped)
	assert.Len(t, sizes, 2)
}

func TestWriteExtradataFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "extradata")
	err := WriteExtradataFile(file, ExtradataAnnexB, uvch264test.SPS, uvch264test.PPS)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, uvch264test.AnnexB(uvch264test.SPS, uvch264test.PPS), data)

	err = WriteExtradataFile(file, "hvcc", uvch264test.SPS, uvch264test.PPS)
	require.Error(t, err)
}

func TestJsonPrinter(t *testing.T) {
	buf := bytes.Buffer{}
	jp := NewJsonPrinter(&buf, Options{Indent: true})
	jp.Print(NaluData{Type: "SPS_7", Len: 4}, true)
	jp.Print(NaluData{Type: "PPS_8", Len: 4}, false)
	require.NoError(t, jp.Error())
	assert.Equal(t, "{\n  \"type\": \"SPS_7\",\n  \"len\": 4\n}\n", buf.String())
	assert.False(t, strings.Contains(buf.String(), "PPS"))
}
