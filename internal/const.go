package internal

const (
	PacketSize = 188
	PtsWrap    = 1 << 33
	TimeScale  = 90000
)

func AddPTS(p1, p2 int64) int64 {
	return (p1 + p2) % PtsWrap
}
