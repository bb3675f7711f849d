// Package credential provides salted password hashing with legacy-format
// migration support.
//
// Stored credentials are self-describing strings: the algorithm tag at the
// front of the value selects the verification algorithm. Four formats are
// recognized:
//
//   - $argon2id$... (current, memory-hard, produced by Hash)
//   - $pbkdf2-sha256$... (retained, verify-only)
//   - $2a$/$2b$/$2y$... (bcrypt, retained, verify-only)
//   - bare 64-char hex digest (legacy unsalted SHA-256, verify-only)
//
// An untagged value is always interpreted as the legacy scheme. NeedsRehash
// reports true for everything except an up-to-date argon2id value, so callers
// can migrate users off fast unsalted hashes the next time they authenticate
// successfully.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Algorithm identifies the hashing scheme encoded in a stored credential.
type Algorithm int

const (
	// AlgorithmUnknown means the stored value matched no recognized format.
	AlgorithmUnknown Algorithm = iota

	// AlgorithmLegacySHA256 is the untagged unsalted SHA-256 hex digest
	// produced by early releases. Verify-only; never produced by Hash.
	AlgorithmLegacySHA256

	// AlgorithmPBKDF2 is PBKDF2-SHA256 with a per-credential salt.
	// Verify-only; retained for credentials hashed by older releases.
	AlgorithmPBKDF2

	// AlgorithmBcrypt is standard bcrypt. Verify-only.
	AlgorithmBcrypt

	// AlgorithmArgon2id is the current preferred algorithm.
	AlgorithmArgon2id
)

// String returns the algorithm name for logging and metric labels.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmLegacySHA256:
		return "legacy-sha256"
	case AlgorithmPBKDF2:
		return "pbkdf2-sha256"
	case AlgorithmBcrypt:
		return "bcrypt"
	case AlgorithmArgon2id:
		return "argon2id"
	default:
		return "unknown"
	}
}

// Format tag prefixes for stored credentials.
const (
	prefixArgon2id = "$argon2id$"
	prefixPBKDF2   = "$pbkdf2-sha256$"
)

// Decoded parameter bounds enforced during Verify. A stored value claiming
// parameters above these is treated as malformed rather than executed, so a
// poisoned credential row cannot pin a CPU or exhaust memory during login.
const (
	maxVerifyMemoryKiB  = 2 << 20 // 2 GiB
	maxVerifyIterations = 64
	maxVerifyThreads    = 16
	maxVerifyKeyLength  = 128
	maxVerifyPBKDF2Iter = 10_000_000
)

// Params holds Argon2id cost parameters for newly produced hashes.
type Params struct {
	// MemoryKiB is the memory cost in KiB.
	MemoryKiB uint32

	// Iterations is the time cost (number of passes).
	Iterations uint32

	// Parallelism is the number of lanes/threads.
	Parallelism uint8

	// SaltLength is the salt size in bytes for new hashes.
	SaltLength uint32

	// KeyLength is the derived key size in bytes.
	KeyLength uint32
}

// DefaultParams returns the current production Argon2id parameters
// (64 MiB, 3 passes, 2 lanes, 16-byte salt, 32-byte key).
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces and verifies stored credentials. Hashing is deliberately
// CPU and memory intensive; all operations are stateless and safe for
// concurrent use.
type Hasher struct {
	params Params
}

// NewHasher creates a Hasher with the given Argon2id parameters.
// Zero-value fields are rejected rather than silently defaulted: weak
// parameters reaching production through an unset config is exactly the
// misconfiguration class that must fail loudly at startup.
func NewHasher(params Params) (*Hasher, error) {
	if params.MemoryKiB == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("credential: argon2id cost parameters must be non-zero (m=%d, t=%d, p=%d)",
			params.MemoryKiB, params.Iterations, params.Parallelism)
	}
	if params.SaltLength < 8 {
		return nil, fmt.Errorf("credential: salt length %d below minimum of 8 bytes", params.SaltLength)
	}
	if params.KeyLength < 16 {
		return nil, fmt.Errorf("credential: key length %d below minimum of 16 bytes", params.KeyLength)
	}
	return &Hasher{params: params}, nil
}

// NewDefaultHasher creates a Hasher with DefaultParams.
func NewDefaultHasher() *Hasher {
	h, err := NewHasher(DefaultParams())
	if err != nil {
		// DefaultParams always satisfies NewHasher's bounds.
		panic(fmt.Sprintf("credential: default params rejected: %v", err))
	}
	return h
}

// Hash derives a tagged Argon2id credential from password using a fresh
// random salt. Two calls with the same password produce different outputs.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("credential: failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		prefixArgon2id,
		argon2.Version,
		h.params.MemoryKiB, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the stored credential.
// Dispatch is exhaustive over the detected algorithm; a malformed or
// unrecognized stored value verifies as false, never as an error, so a
// corrupted credential row fails closed.
func (h *Hasher) Verify(password, stored string) bool {
	switch DetectAlgorithm(stored) {
	case AlgorithmArgon2id:
		return verifyArgon2id(password, stored)
	case AlgorithmPBKDF2:
		return verifyPBKDF2(password, stored)
	case AlgorithmBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	case AlgorithmLegacySHA256:
		return verifyLegacySHA256(password, stored)
	case AlgorithmUnknown:
		return false
	default:
		return false
	}
}

// NeedsRehash reports whether the stored credential should be replaced with
// a fresh Hash output. True for every retained format and for argon2id
// values whose cost parameters differ from the hasher's current ones; false
// only for an up-to-date argon2id value. Callers are expected to rehash and
// persist after the user next authenticates successfully.
func (h *Hasher) NeedsRehash(stored string) bool {
	switch DetectAlgorithm(stored) {
	case AlgorithmArgon2id:
		dec, ok := decodeArgon2id(stored)
		if !ok {
			return true
		}
		return dec.memoryKiB != h.params.MemoryKiB ||
			dec.iterations != h.params.Iterations ||
			dec.parallelism != h.params.Parallelism ||
			uint32(len(dec.key)) != h.params.KeyLength
	default:
		// Legacy, pbkdf2, bcrypt and malformed values all want migration.
		return true
	}
}

// DetectAlgorithm classifies a stored credential by its format tag.
// An untagged value is only accepted as legacy when it is a plausible
// SHA-256 hex digest; everything else is AlgorithmUnknown.
func DetectAlgorithm(stored string) Algorithm {
	switch {
	case strings.HasPrefix(stored, prefixArgon2id):
		return AlgorithmArgon2id
	case strings.HasPrefix(stored, prefixPBKDF2):
		return AlgorithmPBKDF2
	case strings.HasPrefix(stored, "$2a$"),
		strings.HasPrefix(stored, "$2b$"),
		strings.HasPrefix(stored, "$2y$"):
		return AlgorithmBcrypt
	case isHexDigest(stored, sha256.Size):
		return AlgorithmLegacySHA256
	default:
		return AlgorithmUnknown
	}
}

// isHexDigest reports whether s is exactly the hex encoding of byteLen bytes.
func isHexDigest(s string, byteLen int) bool {
	if len(s) != byteLen*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

type argon2idValue struct {
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// decodeArgon2id parses a $argon2id$v=19$m=..,t=..,p=..$salt$key value.
// Returns ok=false for any structural problem or for parameters beyond the
// verification bounds.
func decodeArgon2id(stored string) (argon2idValue, bool) {
	var v argon2idValue

	parts := strings.Split(stored, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 {
		return v, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return v, false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return v, false
	}
	if m == 0 || m > maxVerifyMemoryKiB || t == 0 || t > maxVerifyIterations || p == 0 || p > maxVerifyThreads {
		return v, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return v, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxVerifyKeyLength {
		return v, false
	}

	v.memoryKiB = m
	v.iterations = t
	v.parallelism = p
	v.salt = salt
	v.key = key
	return v, true
}

func verifyArgon2id(password, stored string) bool {
	dec, ok := decodeArgon2id(stored)
	if !ok {
		return false
	}
	computed := argon2.IDKey([]byte(password), dec.salt,
		dec.iterations, dec.memoryKiB, dec.parallelism, uint32(len(dec.key)))
	return subtle.ConstantTimeCompare(computed, dec.key) == 1
}

// verifyPBKDF2 checks a $pbkdf2-sha256$<iterations>$<hex salt>$<hex digest>
// value as written by the previous backend release.
func verifyPBKDF2(password, stored string) bool {
	rest := strings.TrimPrefix(stored, prefixPBKDF2)
	parts := strings.Split(rest, "$")
	if len(parts) != 3 {
		return false
	}

	var iterations int
	if _, err := fmt.Sscanf(parts[0], "%d", &iterations); err != nil {
		return false
	}
	if iterations <= 0 || iterations > maxVerifyPBKDF2Iter {
		return false
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}
	digest, err := hex.DecodeString(parts[2])
	if err != nil || len(digest) == 0 || len(digest) > maxVerifyKeyLength {
		return false
	}

	computed := pbkdf2.Key([]byte(password), salt, iterations, len(digest), sha256.New)
	return subtle.ConstantTimeCompare(computed, digest) == 1
}

// verifyLegacySHA256 checks a bare unsalted SHA-256 hex digest. The digest
// comparison is constant time; the format is fast and unsalted, which is
// exactly why NeedsRehash always flags it.
func verifyLegacySHA256(password, stored string) bool {
	expected, err := hex.DecodeString(stored)
	if err != nil || len(expected) != sha256.Size {
		return false
	}
	computed := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(computed[:], expected) == 1
}

// LegacyDigest computes the legacy unsalted SHA-256 hex encoding of
// password. Exported for migration tooling and tests that need to fabricate
// pre-migration credentials; never use it for new hashes.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
