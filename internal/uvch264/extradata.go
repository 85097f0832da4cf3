package uvch264

// ExtradataTrailer is appended after SPS and PPS in the raw extradata blob.
const ExtradataTrailer byte = 0x00

// BuildExtradata concatenates sps, pps and ExtradataTrailer.
func BuildExtradata(sps, pps []byte) []byte {
	out := make([]byte, 0, len(sps)+len(pps)+1)
	out = append(out, sps...)
	out = append(out, pps...)
	return append(out, ExtradataTrailer)
}

// AnnexBExtradata returns sps and pps each prefixed by a 4-byte start code.
func AnnexBExtradata(sps, pps []byte) []byte {
	out := make([]byte, 0, 2*len(startCode)+len(sps)+len(pps))
	out = append(out, startCode...)
	out = append(out, sps...)
	out = append(out, startCode...)
	return append(out, pps...)
}
