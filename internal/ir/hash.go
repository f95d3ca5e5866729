package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainStep = "triphase/step/v1"
	DomainRun  = "triphase/run/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte separator
// prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StepDigest computes the content digest of one canonical step map.
// The digest is stable across restarts and replays given the same step.
func StepDigest(step map[string]any) (string, error) {
	canonical, err := MarshalCanonical(step)
	if err != nil {
		return "", fmt.Errorf("StepDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStep, canonical), nil
}

// RunDigest computes the digest of a whole run from its canonical step
// maps in execution order. Reordering two steps changes the digest.
func RunDigest(steps []map[string]any) (string, error) {
	arr := make([]any, len(steps))
	for i, s := range steps {
		arr[i] = s
	}

	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("RunDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// MustRunDigest is like RunDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRunDigest(steps []map[string]any) string {
	d, err := RunDigest(steps)
	if err != nil {
		panic(err)
	}
	return d
}
