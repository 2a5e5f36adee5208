package checksum

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16CCITTKnownVector(t *testing.T) {
	// "123456789" is the standard CRC-16/CCITT-FALSE test vector, expected
	// checksum 0x29B1 with seed 0xFFFF.
	got := CRC16CCITT{}.Compute([]byte("123456789"), 0, 9, 0xFFFF)
	require.Equal(t, uint64(0x29B1), got)
}

func TestCRC32IEEEMatchesStdlib(t *testing.T) {
	data := []byte("the quick brown fox")
	got := CRC32IEEE{}.Compute(data, 0, len(data), 0)
	require.Equal(t, uint64(crc32.ChecksumIEEE(data)), got)
}

func TestFletcher16Deterministic(t *testing.T) {
	data := []byte{0x01, 0x02}
	got := Fletcher16{}.Compute(data, 0, len(data), 0)
	// Fletcher-16({0x01,0x02}) with seed 0: sum1 = 1, 3; sum2 = 1, 4.
	require.Equal(t, uint64(4<<8|3), got)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	a, err := r.Lookup("CRC16-CCITT")
	require.NoError(t, err)
	require.Equal(t, "CRC16-CCITT", a.Name())

	_, err = r.Lookup("nonexistent")
	require.Error(t, err)
}

func TestAppendBigEndianLittleEndian(t *testing.T) {
	be := AppendBigEndian(nil, 0x1234, 2)
	require.Equal(t, []byte{0x12, 0x34}, be)
	le := AppendLittleEndian(nil, 0x1234, 2)
	require.Equal(t, []byte{0x34, 0x12}, le)
}
