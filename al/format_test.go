package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelConfigNumChannels(t *testing.T) {
	cases := map[ChannelConfig]int{
		ChanMono:      1,
		ChanStereo:    2,
		ChanRear:      2,
		ChanQuad:      4,
		Chan51:        6,
		Chan61:        7,
		Chan71:        8,
		ChanBFormat2D: 2,
		ChanBFormat3D: 4,
	}
	for cfg, want := range cases {
		assert.Equal(t, want, cfg.NumChannels())
	}
}

func TestSanitizeBlockAlignDefaults(t *testing.T) {
	align, err := SanitizeBlockAlign(TypeIMA4, 0)
	require.NoError(t, err)
	assert.Equal(t, 65, align)

	align, err = SanitizeBlockAlign(TypeMSADPCM, 0)
	require.NoError(t, err)
	assert.Equal(t, 64, align)

	align, err = SanitizeBlockAlign(TypeS16, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, align)
}

func TestSanitizeBlockAlignRejectsBadValues(t *testing.T) {
	_, err := SanitizeBlockAlign(TypeIMA4, -1)
	assert.Error(t, err)

	_, err = SanitizeBlockAlign(TypeIMA4, 8) // must be 1 mod 8
	assert.Error(t, err)

	_, err = SanitizeBlockAlign(TypeMSADPCM, 3) // must be even
	assert.Error(t, err)
}

func TestBlockShapeIMA4(t *testing.T) {
	blockBytes, blockFrames := BlockShape(TypeIMA4, 65)
	assert.Equal(t, 36, blockBytes)
	assert.Equal(t, 65, blockFrames)
}

func TestAlign16(t *testing.T) {
	assert.Equal(t, 0, align16(0))
	assert.Equal(t, 16, align16(1))
	assert.Equal(t, 16, align16(16))
	assert.Equal(t, 32, align16(17))
}
