package services

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashService computes content checksums recorded on cleaning jobs
type HashService struct{}

// NewHashService creates a SHA-256 hash service
func NewHashService() *HashService {
	return &HashService{}
}

// CalculateHashFromBytes hashes an in-memory upload
func (h *HashService) CalculateHashFromBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
