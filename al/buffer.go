// buffer.go - the Buffer object

package al

import (
	"encoding/binary"
	"math"
	"sync"
)

// AccessFlag are the bits a buffer can be mapped with.
type AccessFlag int

const (
	AccessRead AccessFlag = 1 << iota
	AccessWrite
)

// Buffer is a contiguous, 16-byte-aligned PCM block of one internal
// sample type and one channel configuration.
type Buffer struct {
	mu sync.RWMutex

	id        handle
	channels  ChannelConfig
	origType  SampleType
	internal  InternalType
	rate      int
	length    int // frames
	byteCap   int // storage capacity, rounded up to 16
	blockAlgn int // pack/unpack block alignment
	data      []byte

	loopStart, loopEnd int

	mapped    bool
	mapAccess AccessFlag
	mapOffset int
	mapLength int
	refcount  int // one per queueing source reference
}

func newBuffer() *Buffer {
	return &Buffer{}
}

// InUse reports whether any source queue or voice references this
// buffer, the condition that blocks destroy/upload/loop-point changes.
func (b *Buffer) InUse() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.refcount > 0
}

func (b *Buffer) addRef() {
	b.mu.Lock()
	b.refcount++
	b.mu.Unlock()
}

func (b *Buffer) release() {
	b.mu.Lock()
	if b.refcount > 0 {
		b.refcount--
	}
	b.mu.Unlock()
}

// frameBytes returns the internal per-frame byte size (all channels).
func (b *Buffer) frameBytes() int {
	return b.internal.BytesPerSample() * b.channels.NumChannels()
}

// Data performs an upload: decomposes format, validates size/alignment,
// converts to the internal type, and resets loop points.
func (b *Buffer) Data(format Format, src []byte, rate int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refcount > 0 {
		return errf(InvalidOperation, "buffer referenced by a source")
	}
	if b.mapped {
		return errf(InvalidOperation, "buffer is mapped")
	}
	if rate <= 0 {
		return errf(InvalidValue, "sample rate must be positive")
	}

	align, err := SanitizeBlockAlign(format.Type, b.blockAlgn)
	if err != nil {
		return err
	}

	internal := internalTypeFor(format.Type)
	channels := format.Channels.NumChannels()
	if channels == 0 {
		return errf(InvalidEnum, "unrecognized channel configuration")
	}

	converted, frames, err := convertUpload(format.Type, src, channels, align)
	if err != nil {
		return err
	}

	b.channels = format.Channels
	b.origType = format.Type
	b.internal = internal
	b.rate = rate
	b.blockAlgn = align
	b.data = converted
	b.byteCap = align16(len(converted))
	b.length = frames
	b.loopStart = 0
	b.loopEnd = frames
	return nil
}

// SubData replaces a byte-aligned-block sub-range, requiring format,
// channels, alignment and sample type to match the original upload.
func (b *Buffer) SubData(format Format, src []byte, offset, length int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refcount > 0 {
		return errf(InvalidOperation, "buffer referenced by a source")
	}
	if format.Channels != b.channels || format.Type != b.origType {
		return errf(InvalidOperation, "format mismatch with original upload")
	}
	blockBytes, _ := BlockShape(b.origType, b.blockAlgn)
	if blockBytes == 0 {
		blockBytes = b.frameBytes()
	}
	if offset%blockBytes != 0 || length%blockBytes != 0 {
		return errf(InvalidValue, "offset/length not block-aligned")
	}
	if offset+length > len(b.data) {
		return errf(InvalidValue, "sub-range exceeds buffer size")
	}

	converted, _, err := convertUpload(format.Type, src, format.Channels.NumChannels(), b.blockAlgn)
	if err != nil {
		return err
	}
	if len(converted) != length {
		return errf(InvalidValue, "converted length does not match requested range")
	}
	copy(b.data[offset:offset+length], converted)
	return nil
}

// Map returns a byte window for application read/write, requiring the
// access bit to have been granted at upload time conceptually (we grant
// per-map here since this library does not gate access bits at upload)
// and no concurrent voice reference.
func (b *Buffer) Map(offset, length int, access AccessFlag) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refcount > 0 {
		return nil, errf(InvalidOperation, "buffer referenced by a source")
	}
	if b.mapped {
		return nil, errf(InvalidOperation, "buffer already mapped")
	}
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		return nil, errf(InvalidValue, "map range out of bounds")
	}

	window := b.data[offset : offset+length]
	if access&AccessWrite != 0 && access&AccessRead == 0 {
		for i := range window {
			window[i] = 0x55
		}
	}
	b.mapped = true
	b.mapAccess = access
	b.mapOffset = offset
	b.mapLength = length
	return window, nil
}

// Unmap releases a map.
func (b *Buffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.mapped {
		return errf(InvalidOperation, "buffer is not mapped")
	}
	b.mapped = false
	return nil
}

// SetLoopPoints sets [start, end) validated against sample length;
// fails if any voice references the buffer.
func (b *Buffer) SetLoopPoints(start, end int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refcount > 0 {
		return errf(InvalidOperation, "buffer referenced by a source")
	}
	if !(0 <= start && start < end && end <= b.length) {
		return errf(InvalidValue, "loop points out of range")
	}
	b.loopStart, b.loopEnd = start, end
	return nil
}

// LoopPoints returns the current loop [start, end).
func (b *Buffer) LoopPoints() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loopStart, b.loopEnd
}

// SetUnpackBlockAlign sets the alignment used for the next Data upload.
func (b *Buffer) SetUnpackBlockAlign(align int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if align < 0 {
		return errf(InvalidValue, "negative block alignment")
	}
	b.blockAlgn = align
	return nil
}

// Frequency, Channels, Length etc. expose read-only properties.
func (b *Buffer) Frequency() int     { b.mu.RLock(); defer b.mu.RUnlock(); return b.rate }
func (b *Buffer) Length() int        { b.mu.RLock(); defer b.mu.RUnlock(); return b.length }
func (b *Buffer) ByteLength() int    { b.mu.RLock(); defer b.mu.RUnlock(); return len(b.data) }
func (b *Buffer) NumChannels() int   { b.mu.RLock(); defer b.mu.RUnlock(); return b.channels.NumChannels() }
func (b *Buffer) Internal() InternalType {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.internal
}
func (b *Buffer) BitsPerSample() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.internal.BytesPerSample() * 8
}

// frameAt returns the internal-format frame at the given frame index
// across all channels as float32, used by the voice/resampler fetch
// path. Safe to call without a lock only from the mixer after the
// source/voice machinery has established exclusivity via refcounting.
func (b *Buffer) frameAt(frame, channel int) float32 {
	fb := b.frameBytes()
	off := frame*fb + channel*b.internal.BytesPerSample()
	if off < 0 || off+b.internal.BytesPerSample() > len(b.data) {
		return 0
	}
	switch b.internal {
	case InternalS16:
		v := int16(uint16(b.data[off]) | uint16(b.data[off+1])<<8)
		return float32(v) / 32768.0
	case InternalF32:
		bits := uint32(b.data[off]) | uint32(b.data[off+1])<<8 | uint32(b.data[off+2])<<16 | uint32(b.data[off+3])<<24
		return math.Float32frombits(bits)
	case InternalS8:
		return float32(int8(b.data[off])) / 128.0
	}
	return 0
}

func internalTypeFor(t SampleType) InternalType {
	switch t {
	case TypeF32, TypeF64:
		return InternalF32
	case TypeU8, TypeS32, TypeU32:
		return InternalS16
	default:
		return InternalS16
	}
}

// convertUpload decomposes+converts application data into the internal
// representation, returning converted bytes and frame count.
func convertUpload(t SampleType, src []byte, channels, align int) ([]byte, int, error) {
	switch t {
	case TypeU8:
		if len(src) == 0 {
			return nil, 0, nil
		}
		s16 := make([]int16, len(src))
		U8ToS16(src, s16)
		return s16Bytes(s16), len(src) / channels, nil
	case TypeS16:
		if len(src)%2 != 0 {
			return nil, 0, errf(InvalidValue, "odd byte count for S16 data")
		}
		frames := (len(src) / 2) / channels
		return append([]byte(nil), src...), frames, nil
	case TypeF32:
		if len(src)%4 != 0 {
			return nil, 0, errf(InvalidValue, "byte count not a multiple of 4 for F32 data")
		}
		frames := (len(src) / 4) / channels
		return append([]byte(nil), src...), frames, nil
	case TypeF64:
		if len(src)%8 != 0 {
			return nil, 0, errf(InvalidValue, "byte count not a multiple of 8 for F64 data")
		}
		n := len(src) / 8
		f64 := make([]float64, n)
		for i := range f64 {
			bits := binary.LittleEndian.Uint64(src[i*8:])
			f64[i] = math.Float64frombits(bits)
		}
		f32 := make([]float32, n)
		F64ToF32(f64, f32)
		return f32Bytes(f32), n / channels, nil
	case TypeS32:
		if len(src)%4 != 0 {
			return nil, 0, errf(InvalidValue, "byte count not a multiple of 4 for S32 data")
		}
		n := len(src) / 4
		s32 := make([]int32, n)
		for i := range s32 {
			s32[i] = int32(binary.LittleEndian.Uint32(src[i*4:]))
		}
		s16 := make([]int16, n)
		S32ToS16(s32, s16)
		return s16Bytes(s16), n / channels, nil
	case TypeU32:
		if len(src)%4 != 0 {
			return nil, 0, errf(InvalidValue, "byte count not a multiple of 4 for U32 data")
		}
		n := len(src) / 4
		u32 := make([]uint32, n)
		for i := range u32 {
			u32[i] = binary.LittleEndian.Uint32(src[i*4:])
		}
		s16 := make([]int16, n)
		U32ToS16(u32, s16)
		return s16Bytes(s16), n / channels, nil
	case TypeMuLaw, TypeALaw:
		if len(src) == 0 {
			return nil, 0, nil
		}
		s16 := make([]int16, len(src))
		if t == TypeMuLaw {
			DecodeMuLaw(src, s16)
		} else {
			DecodeALaw(src, s16)
		}
		return s16Bytes(s16), len(src) / channels, nil
	case TypeIMA4:
		return decodeADPCMUpload(src, channels, align, true)
	case TypeMSADPCM:
		return decodeADPCMUpload(src, channels, align, false)
	default:
		return nil, 0, errf(InvalidEnum, "unsupported source sample type")
	}
}

func decodeADPCMUpload(src []byte, channels, align int, ima bool) ([]byte, int, error) {
	blockBytes, blockFrames := BlockShape(ternary(ima, TypeIMA4, TypeMSADPCM), align)
	perChannelBlockBytes := blockBytes
	totalBlockBytes := perChannelBlockBytes * channels
	if totalBlockBytes == 0 || len(src)%totalBlockBytes != 0 {
		return nil, 0, errf(InvalidValue, "data size is not a whole number of blocks")
	}
	numBlocks := len(src) / totalBlockBytes
	out := make([]int16, numBlocks*blockFrames*channels)
	states := make([]imaDecoderState, channels)

	for blk := 0; blk < numBlocks; blk++ {
		base := blk * totalBlockBytes
		for ch := 0; ch < channels; ch++ {
			chBlock := src[base+ch*perChannelBlockBytes : base+(ch+1)*perChannelBlockBytes]
			frames := make([]int16, blockFrames)
			if ima {
				DecodeIMA4Block(chBlock, align, &states[ch], frames)
			} else {
				DecodeMSADPCMBlock(chBlock, align, frames)
			}
			for f := 0; f < blockFrames; f++ {
				out[(blk*blockFrames+f)*channels+ch] = frames[f]
			}
		}
	}
	return s16Bytes(out), numBlocks * blockFrames, nil
}

func ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

func s16Bytes(s []int16) []byte {
	out := make([]byte, len(s)*2)
	for i, v := range s {
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func f32Bytes(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
