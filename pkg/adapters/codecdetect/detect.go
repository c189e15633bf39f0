// Package codecdetect identifies the codec and picture count of segment files.
package codecdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/pushwork/pkg/adapters/h264encoder"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecUnknown Codec = "unknown"
)

// Info describes one segment file.
type Info struct {
	Path      string
	Container string // "h264" or "mp4"
	Codec     Codec
	Profile   string
	Width     int
	Height    int
	Frames    int
	Keyframes int // Only known for raw streams
	Bytes     int
}

// Inspect reads a segment file and describes it. Files starting with an
// ftyp box are parsed as MP4, anything else as a raw Annex B stream.
func Inspect(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read file: %w", err)
	}

	var info Info
	if isMP4(data) {
		info, err = inspectMP4(data)
	} else {
		info, err = inspectAnnexB(data)
	}
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	info.Path = path
	info.Bytes = len(data)
	return info, nil
}

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return CodecUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the video codec from an MP4 io.ReadSeeker.
// The reader is rewound afterwards.
func DetectFromReader(reader io.ReadSeeker) (Codec, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return CodecUnknown, fmt.Errorf("seek: %w", err)
	}

	for _, trak := range videoTracks(mp4File) {
		if codec, _ := sampleEntry(trak); codec != CodecUnknown {
			return codec, nil
		}
	}
	return CodecUnknown, fmt.Errorf("no video track found")
}

func isMP4(data []byte) bool {
	return len(data) >= 8 && string(data[4:8]) == "ftyp"
}

func inspectMP4(data []byte) (Info, error) {
	mp4File, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	info := Info{Container: "mp4", Codec: CodecUnknown}
	traks := videoTracks(mp4File)
	if len(traks) == 0 {
		return Info{}, fmt.Errorf("no video track found")
	}

	trak := traks[0]
	codec, entry := sampleEntry(trak)
	info.Codec = codec
	if entry != nil {
		info.Width = int(entry.Width)
		info.Height = int(entry.Height)
		if entry.AvcC != nil {
			info.Profile = profileName(int(entry.AvcC.AVCProfileIndication))
		}
	}

	if mp4File.IsFragmented() {
		for _, seg := range mp4File.Segments {
			for _, frag := range seg.Fragments {
				for _, traf := range frag.Moof.Trafs {
					for _, trun := range traf.Truns {
						info.Frames += int(trun.SampleCount())
					}
				}
			}
		}
	} else if stbl := trak.Mdia.Minf.Stbl; stbl != nil && stbl.Stsz != nil {
		info.Frames = int(stbl.Stsz.SampleNumber)
	}
	return info, nil
}

func inspectAnnexB(data []byte) (Info, error) {
	frames, keyframes := h264encoder.CountPictures(data)
	if frames == 0 {
		return Info{}, fmt.Errorf("no H.264 pictures found")
	}

	info := Info{
		Container: "h264",
		Codec:     CodecH264,
		Frames:    frames,
		Keyframes: keyframes,
	}

	sps, _, err := h264encoder.ParameterSets(data)
	if err != nil || len(sps) < 4 {
		return info, nil
	}
	parsed, err := avc.ParseSPSNALUnit(sps, false)
	if err != nil {
		return info, nil
	}
	info.Width = int(parsed.Width)
	info.Height = int(parsed.Height)
	info.Profile = profileName(int(parsed.Profile))
	return info, nil
}

func videoTracks(f *mp4.File) []*mp4.TrakBox {
	var moov *mp4.MoovBox
	if f.IsFragmented() && f.Init != nil {
		moov = f.Init.Moov
	} else {
		moov = f.Moov
	}
	if moov == nil {
		return nil
	}

	var traks []*mp4.TrakBox
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		traks = append(traks, trak)
	}
	return traks
}

func sampleEntry(trak *mp4.TrakBox) (Codec, *mp4.VisualSampleEntryBox) {
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		entry, _ := child.(*mp4.VisualSampleEntryBox)
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264, entry
		case "hvc1", "hev1":
			return CodecHEVC, entry
		case "av01":
			return CodecAV1, entry
		}
	}
	return CodecUnknown, nil
}

func profileName(idc int) string {
	switch idc {
	case 66:
		return "baseline"
	case 77:
		return "main"
	case 88:
		return "extended"
	case 100:
		return "high"
	case 0:
		return ""
	default:
		return fmt.Sprintf("profile-%d", idc)
	}
}
