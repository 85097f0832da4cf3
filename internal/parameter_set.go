package internal

import "encoding/hex"

type PsInfo struct {
	ParameterSet string `json:"parameterSet"`
	Nr           uint32 `json:"nr"`
	Frame        int    `json:"frame"`
	Hex          string `json:"hex"`
	Length       int    `json:"length"`
	Details      any    `json:"details,omitempty"`
}

type ExtradataInfo struct {
	Format string `json:"format"`
	Hex    string `json:"hex"`
	Length int    `json:"length"`
}

func (jp *JsonPrinter) PrintPS(frame int, psKind string, nr uint32, ps []byte, details any, verbose bool, show bool) {
	hexStr := hex.EncodeToString(ps)
	psInfo := PsInfo{
		ParameterSet: psKind,
		Nr:           nr,
		Frame:        frame,
		Hex:          hexStr,
		Length:       len(ps),
	}
	if verbose {
		psInfo.Details = details
	}
	jp.Print(psInfo, show)
}

func (jp *JsonPrinter) PrintExtradata(format string, data []byte, show bool) {
	jp.Print(ExtradataInfo{
		Format: format,
		Hex:    hex.EncodeToString(data),
		Length: len(data),
	}, show)
}
