package fec

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// RSEncoder wraps Reed-Solomon encoding/decoding, used to frame small
// payloads (telemetry reports, not packet bits) with recoverable parity.
type RSEncoder struct {
	enc        reedsolomon.Encoder
	dataShards int
	parShards  int
}

const (
	DefaultDataShards   = 223
	DefaultParityShards = 32
)

// NewRSEncoder creates a new Reed-Solomon encoder.
func NewRSEncoder() (*RSEncoder, error) {
	return NewRSEncoderCustom(DefaultDataShards, DefaultParityShards)
}

// NewRSEncoderCustom creates a Reed-Solomon encoder with custom shard counts.
func NewRSEncoderCustom(dataShards, parityShards int) (*RSEncoder, error) {
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("create reed-solomon encoder: %w", err)
	}
	return &RSEncoder{
		enc:        enc,
		dataShards: dataShards,
		parShards:  parityShards,
	}, nil
}

// Encode adds Reed-Solomon parity to the data.
// Input: raw data bytes
// Output: data + parity bytes
func (rs *RSEncoder) Encode(data []byte) ([]byte, error) {
	totalShards := rs.dataShards + rs.parShards

	// Split data into shards
	shards, err := rs.splitData(data)
	if err != nil {
		return nil, err
	}

	// Encode parity
	err = rs.enc.Encode(shards)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	// Concatenate all shards
	result := make([]byte, 0, totalShards*len(shards[0]))
	for _, shard := range shards {
		result = append(result, shard...)
	}

	return result, nil
}

// Decode recovers the original data from encoded data, treating the shards
// listed in erasures as missing and reconstructing them from parity.
// Input: encoded data (data + parity)
// Output: recovered original data
func (rs *RSEncoder) Decode(encoded []byte, erasures ...int) ([]byte, error) {
	shards, err := rs.splitEncoded(encoded)
	if err != nil {
		return nil, err
	}
	for _, idx := range erasures {
		if idx >= 0 && idx < len(shards) {
			shards[idx] = nil
		}
	}

	// Reconstruct
	err = rs.enc.Reconstruct(shards)
	if err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}

	// Verify
	ok, err := rs.enc.Verify(shards)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("verification failed: data may be corrupted beyond repair")
	}

	// Extract data shards
	var result []byte
	for i := 0; i < rs.dataShards; i++ {
		result = append(result, shards[i]...)
	}

	return result, nil
}

func (rs *RSEncoder) splitData(data []byte) ([][]byte, error) {
	totalShards := rs.dataShards + rs.parShards
	shardSize := (len(data) + rs.dataShards - 1) / rs.dataShards

	shards := make([][]byte, totalShards)
	for i := 0; i < rs.dataShards; i++ {
		shards[i] = make([]byte, shardSize)
		start := i * shardSize
		end := start + shardSize
		if start < len(data) {
			if end > len(data) {
				end = len(data)
			}
			copy(shards[i], data[start:end])
		}
	}
	for i := rs.dataShards; i < totalShards; i++ {
		shards[i] = make([]byte, shardSize)
	}

	return shards, nil
}

func (rs *RSEncoder) splitEncoded(encoded []byte) ([][]byte, error) {
	totalShards := rs.dataShards + rs.parShards
	shardSize := len(encoded) / totalShards
	if len(encoded)%totalShards != 0 {
		return nil, fmt.Errorf("encoded data size %d not divisible by %d shards", len(encoded), totalShards)
	}

	shards := make([][]byte, totalShards)
	for i := 0; i < totalShards; i++ {
		shards[i] = make([]byte, shardSize)
		copy(shards[i], encoded[i*shardSize:(i+1)*shardSize])
	}
	return shards, nil
}

// DataShards returns the number of data shards.
func (rs *RSEncoder) DataShards() int { return rs.dataShards }

// ParityShards returns the number of parity shards.
func (rs *RSEncoder) ParityShards() int { return rs.parShards }
