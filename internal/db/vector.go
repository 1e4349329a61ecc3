package db

import (
	"encoding/binary"
	"math"
)

// VectorBytes encodes v as little-endian FLOAT32, the format of both HSET
// vector fields and KNN PARAMS blobs.
func VectorBytes(v []float32) string {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}
