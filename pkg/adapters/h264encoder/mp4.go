package h264encoder

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// NAL unit types used when splitting and muxing.
const (
	nalSlice = 1
	nalIDR   = 5
	nalSEI   = 6
	nalSPS   = 7
	nalPPS   = 8
	nalAUD   = 9
)

// accessUnit is the group of NAL units that make up one coded picture.
type accessUnit struct {
	nalus    [][]byte
	keyframe bool
}

// muxMP4 wraps an Annex B elementary stream in a single-fragment MP4.
func muxMP4(stream []byte, width, height int, fps float64) ([]byte, error) {
	units := splitAccessUnits(parseAnnexB(stream))
	if len(units) == 0 {
		return nil, ErrNoFrames
	}

	timescale := uint32(fps * 1000)
	dur := uint32(1000)
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "und")
	trak := init.Moov.Trak

	sps, pps, err := extractSPSPPS(units)
	if err != nil {
		return nil, fmt.Errorf("extract SPS/PPS: %w", err)
	}
	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}

	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(width), uint16(height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	for i, au := range units {
		flags := mp4.NonSyncSampleFlags
		if au.keyframe {
			flags = mp4.SyncSampleFlags
		}
		data := toAVCC(au.nalus)
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(data)),
				Dur:   dur,
			},
			DecodeTime: uint64(i) * uint64(dur),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// splitAccessUnits groups NAL units into coded pictures. A picture ends
// before an AUD, before parameter sets or SEI that follow a slice, and
// before a slice whose first_mb_in_slice is zero.
func splitAccessUnits(nalus [][]byte) []accessUnit {
	var (
		units   []accessUnit
		cur     accessUnit
		haveVCL bool
	)
	flush := func() {
		if haveVCL {
			units = append(units, cur)
		}
		cur = accessUnit{}
		haveVCL = false
	}

	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		switch typ := nalu[0] & 0x1F; typ {
		case nalSlice, nalIDR:
			if haveVCL && firstSliceOfPicture(nalu) {
				flush()
			}
			cur.nalus = append(cur.nalus, nalu)
			if typ == nalIDR {
				cur.keyframe = true
			}
			haveVCL = true
		case nalAUD, nalSPS, nalPPS, nalSEI:
			if haveVCL {
				flush()
			}
			cur.nalus = append(cur.nalus, nalu)
		default:
			cur.nalus = append(cur.nalus, nalu)
		}
	}
	flush()
	return units
}

// firstSliceOfPicture reports whether first_mb_in_slice is zero, which as
// an Exp-Golomb value is encoded as a single 1 bit.
func firstSliceOfPicture(nalu []byte) bool {
	return len(nalu) > 1 && nalu[1]&0x80 != 0
}

// extractSPSPPS returns the first SPS and PPS found in keyframes.
func extractSPSPPS(units []accessUnit) (sps, pps []byte, err error) {
	for _, au := range units {
		if !au.keyframe {
			continue
		}
		for _, nalu := range au.nalus {
			switch nalu[0] & 0x1F {
			case nalSPS:
				if sps == nil {
					sps = append([]byte(nil), nalu...)
				}
			case nalPPS:
				if pps == nil {
					pps = append([]byte(nil), nalu...)
				}
			}
		}
		if sps != nil && pps != nil {
			return sps, pps, nil
		}
	}

	if sps == nil {
		return nil, nil, fmt.Errorf("SPS not found")
	}
	return nil, nil, fmt.Errorf("PPS not found")
}

// parseAnnexB splits an Annex B byte stream into NAL units without start codes.
func parseAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	start := -1
	i := 0

	for i < len(data) {
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 {
			startCodeLen := 0
			if data[i+2] == 1 {
				startCodeLen = 3
			} else if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
				startCodeLen = 4
			}

			if startCodeLen > 0 {
				if start >= 0 && i > start {
					nalus = append(nalus, data[start:i])
				}
				i += startCodeLen
				start = i
				continue
			}
		}
		i++
	}

	if start >= 0 && start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

// toAVCC joins NAL units with 4-byte big-endian length prefixes. Parameter
// sets are left out since they live in the avcC box.
func toAVCC(nalus [][]byte) []byte {
	size := 0
	for _, nalu := range nalus {
		size += 4 + len(nalu)
	}

	out := make([]byte, 0, size)
	for _, nalu := range nalus {
		if typ := nalu[0] & 0x1F; typ == nalSPS || typ == nalPPS || typ == nalAUD {
			continue
		}
		n := len(nalu)
		out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		out = append(out, nalu...)
	}
	return out
}

// CountPictures returns the number of coded pictures and keyframes in an
// Annex B stream.
func CountPictures(stream []byte) (pictures, keyframes int) {
	for _, au := range splitAccessUnits(parseAnnexB(stream)) {
		pictures++
		if au.keyframe {
			keyframes++
		}
	}
	return pictures, keyframes
}

// ParameterSets returns the first SPS and PPS of an Annex B stream.
func ParameterSets(stream []byte) (sps, pps []byte, err error) {
	return extractSPSPPS(splitAccessUnits(parseAnnexB(stream)))
}
