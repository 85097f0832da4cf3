package internal

// FrameData describes one MJPEG frame and the H.264 extracted from it.
type FrameData struct {
	Nr       int        `json:"frame"`
	Size     int        `json:"size"`
	H264Size int        `json:"h264Size"`
	Clamped  bool       `json:"clamped,omitempty"`
	Dropped  bool       `json:"dropped,omitempty"`
	Error    string     `json:"error,omitempty"`
	ImgType  string     `json:"imgType,omitempty"`
	NALUS    []NaluData `json:"nalus,omitempty"`
}

type NaluData struct {
	Type string `json:"type"`
	Len  int    `json:"len"`
	Data string `json:"data,omitempty"`
}
