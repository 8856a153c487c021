// convert.go - stateless sample conversion
//
// Lossless PCM widening, fixed 256-entry mu-law/A-law tables, and
// block-based IMA4/MSADPCM decode with deterministic frames-per-block.

package al

// --- PCM conversions -------------------------------------------------

// U8ToS16 converts unsigned 8-bit PCM to signed 16-bit, offsetting by
// the 0x80 DC bias.
func U8ToS16(src []uint8, dst []int16) {
	for i, v := range src {
		dst[i] = int16(int(v)-0x80) << 8
	}
}

// S16ToU8 is the inverse of U8ToS16.
func S16ToU8(src []int16, dst []uint8) {
	for i, v := range src {
		dst[i] = uint8((int(v) >> 8) + 0x80)
	}
}

// S16ToF32 converts signed 16-bit PCM to normalized float32 in [-1, 1).
func S16ToF32(src []int16, dst []float32) {
	const scale = 1.0 / 32768.0
	for i, v := range src {
		dst[i] = float32(v) * scale
	}
}

// F32ToS16 is the inverse of S16ToF32, saturating to the int16 range.
func F32ToS16(src []float32, dst []int16) {
	for i, v := range src {
		s := v * 32768.0
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		dst[i] = int16(s)
	}
}

// F64ToF32 narrows double-precision samples to the internal float
// storage width.
func F64ToF32(src []float64, dst []float32) {
	for i, v := range src {
		dst[i] = float32(v)
	}
}

// S32ToS16 drops the low 16 bits of full-range signed 32-bit PCM,
// matching the precision the internal S16 storage type keeps anyway.
func S32ToS16(src []int32, dst []int16) {
	for i, v := range src {
		dst[i] = int16(v >> 16)
	}
}

// U32ToS16 offsets unsigned 32-bit PCM by its DC bias before the same
// top-16-bits truncation S32ToS16 performs.
func U32ToS16(src []uint32, dst []int16) {
	for i, v := range src {
		dst[i] = int16(int32(v-0x80000000) >> 16)
	}
}

// --- mu-law / A-law ---------------------------------------------------

var muLawTable [256]int16
var aLawTable [256]int16

func init() {
	for i := 0; i < 256; i++ {
		muLawTable[i] = decodeMuLawByte(uint8(i))
		aLawTable[i] = decodeALawByte(uint8(i))
	}
}

func decodeMuLawByte(b uint8) int16 {
	b = ^b
	sign := b & 0x80
	exponent := (b >> 4) & 0x07
	mantissa := b & 0x0F
	magnitude := (int32(mantissa) << 3) + 0x84
	magnitude <<= exponent
	magnitude -= 0x84
	if sign != 0 {
		magnitude = -magnitude
	}
	if magnitude > 32767 {
		magnitude = 32767
	}
	if magnitude < -32768 {
		magnitude = -32768
	}
	return int16(magnitude)
}

func decodeALawByte(b uint8) int16 {
	b ^= 0x55
	sign := b & 0x80
	exponent := (b >> 4) & 0x07
	mantissa := b & 0x0F
	var magnitude int32
	if exponent == 0 {
		magnitude = (int32(mantissa) << 4) + 8
	} else {
		magnitude = ((int32(mantissa) << 4) + 0x108) << (exponent - 1)
	}
	if sign == 0 {
		magnitude = -magnitude
	}
	return int16(magnitude)
}

// DecodeMuLaw decodes a mu-law byte stream to signed 16-bit PCM via the
// fixed 256-entry table.
func DecodeMuLaw(src []uint8, dst []int16) {
	for i, b := range src {
		dst[i] = muLawTable[b]
	}
}

// DecodeALaw decodes an A-law byte stream to signed 16-bit PCM via the
// fixed 256-entry table.
func DecodeALaw(src []uint8, dst []int16) {
	for i, b := range src {
		dst[i] = aLawTable[b]
	}
}

// --- IMA4 ADPCM --------------------------------------------------------

var imaIndexTable = [8]int{-1, -1, -1, -1, 2, 4, 6, 8}

var imaStepTable = [89]int16{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

// imaDecoderState holds one channel's running predictor/step index
// while a block is decoded; DecodeIMA4Block reloads both from each
// block's header, so nothing carries over from the previous block.
type imaDecoderState struct {
	predictor int32
	stepIndex int32
}

// DecodeIMA4Block decodes one IMA4 block for one channel into exactly
// blockFrames int16 samples, given align. The block layout is a little-endian s16
// predictor, an 8-bit step index, then alignment-defined nibble pairs.
func DecodeIMA4Block(block []byte, align int, st *imaDecoderState, out []int16) {
	st.predictor = int32(int16(uint16(block[0]) | uint16(block[1])<<8))
	st.stepIndex = int32(block[2])
	if st.stepIndex < 0 {
		st.stepIndex = 0
	}
	if st.stepIndex > 88 {
		st.stepIndex = 88
	}
	out[0] = int16(st.predictor)

	nibbleData := block[4:]
	frame := 1
	for _, b := range nibbleData {
		if frame >= align {
			break
		}
		for _, nib := range [2]byte{b & 0x0F, (b >> 4) & 0x0F} {
			if frame >= align {
				break
			}
			out[frame] = imaDecodeNibble(st, nib)
			frame++
		}
	}
}

func imaDecodeNibble(st *imaDecoderState, nibble byte) int16 {
	step := int32(imaStepTable[st.stepIndex])
	diff := step >> 3
	if nibble&1 != 0 {
		diff += step >> 2
	}
	if nibble&2 != 0 {
		diff += step >> 1
	}
	if nibble&4 != 0 {
		diff += step
	}
	if nibble&8 != 0 {
		diff = -diff
	}
	st.predictor += diff
	if st.predictor > 32767 {
		st.predictor = 32767
	}
	if st.predictor < -32768 {
		st.predictor = -32768
	}
	st.stepIndex += int32(imaIndexTable[nibble&0x07])
	if st.stepIndex < 0 {
		st.stepIndex = 0
	}
	if st.stepIndex > 88 {
		st.stepIndex = 88
	}
	return int16(st.predictor)
}

// --- MSADPCM -----------------------------------------------------------

var msadpcmCoeff1 = [7]int32{256, 512, 0, 192, 240, 460, 392}
var msadpcmCoeff2 = [7]int32{0, -256, 0, 64, 0, -208, -232}
var msadpcmAdapt = [16]int32{
	230, 230, 230, 230, 307, 409, 512, 614,
	768, 614, 512, 409, 307, 230, 230, 230,
}

type msadpcmDecoderState struct {
	sample1, sample2 int32
	delta            int32
}

// DecodeMSADPCMBlock decodes one MSADPCM block for one channel into
// exactly blockFrames int16 samples. Block layout:
// [predictor-index, initial-delta(16), sample1(16), sample2(16), nibbles...].
func DecodeMSADPCMBlock(block []byte, align int, out []int16) {
	predIdx := int(block[0])
	if predIdx < 0 || predIdx > 6 {
		predIdx = 0
	}
	st := msadpcmDecoderState{
		delta:   int32(int16(uint16(block[1]) | uint16(block[2])<<8)),
		sample1: int32(int16(uint16(block[3]) | uint16(block[4])<<8)),
		sample2: int32(int16(uint16(block[5]) | uint16(block[6])<<8)),
	}
	out[0] = int16(st.sample2)
	out[1] = int16(st.sample1)

	coeff1 := msadpcmCoeff1[predIdx]
	coeff2 := msadpcmCoeff2[predIdx]
	frame := 2
	for _, b := range block[7:] {
		if frame >= align {
			break
		}
		for _, nib := range [2]byte{(b >> 4) & 0x0F, b & 0x0F} {
			if frame >= align {
				break
			}
			out[frame] = msadpcmDecodeNibble(&st, coeff1, coeff2, nib)
			frame++
		}
	}
}

func msadpcmDecodeNibble(st *msadpcmDecoderState, coeff1, coeff2 int32, nibble byte) int16 {
	predicted := (st.sample1*coeff1 + st.sample2*coeff2) >> 8

	signed := int32(nibble)
	if signed&0x08 != 0 {
		signed -= 0x10
	}
	predicted += signed * st.delta

	if predicted > 32767 {
		predicted = 32767
	} else if predicted < -32768 {
		predicted = -32768
	}

	st.delta = (st.delta * msadpcmAdapt[nibble]) >> 8
	if st.delta < 16 {
		st.delta = 16
	}

	st.sample2 = st.sample1
	st.sample1 = predicted
	return int16(predicted)
}
