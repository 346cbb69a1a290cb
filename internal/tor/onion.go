package tor

import (
	"encoding/base32"
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionSuffix is the top-level domain of onion services.
	OnionSuffix = ".onion"

	onionV3Length  = 56
	onionV2Length  = 16
	onionV3Version = 0x03
)

// ErrInvalidPubKey is returned by ComputeV3Address for keys that are not 32 bytes.
var ErrInvalidPubKey = errors.New("ed25519 public key must be 32 bytes")

// checksumPrefix is the constant prefix of the v3 address checksum input.
var checksumPrefix = []byte(".onion checksum")

// AddressKind classifies the host of a URL.
type AddressKind int

const (
	// AddressV3 is a v3 onion address with a valid checksum.
	AddressV3 AddressKind = iota
	// AddressV2 is a 16-character onion address. Tor stopped serving these in 2021.
	AddressV2
	// AddressBadOnion ends in .onion but is neither a valid v2 nor v3 address.
	AddressBadOnion
	// AddressClearnet is any other host. It is reachable through Tor exits.
	AddressClearnet
	// AddressUnparseable could not be parsed as a URL with a host.
	AddressUnparseable
)

// String returns a short description used in warnings.
func (k AddressKind) String() string {
	switch k {
	case AddressV3:
		return "onion v3"
	case AddressV2:
		return "retired onion v2"
	case AddressBadOnion:
		return "malformed onion"
	case AddressClearnet:
		return "clearnet"
	default:
		return "unparseable"
	}
}

// Classify returns the kind of the host in rawURL. A missing scheme is
// treated as http.
func Classify(rawURL string) AddressKind {
	host := Host(rawURL)
	switch {
	case host == "":
		return AddressUnparseable
	case !strings.HasSuffix(host, OnionSuffix):
		return AddressClearnet
	}

	// Subdomains of an onion service share its address.
	label := strings.TrimSuffix(host, OnionSuffix)
	if i := strings.LastIndexByte(label, '.'); i >= 0 {
		label = label[i+1:]
	}

	switch {
	case len(label) == onionV3Length && IsValidV3Address(label+OnionSuffix):
		return AddressV3
	case len(label) == onionV2Length && isBase32(label):
		return AddressV2
	default:
		return AddressBadOnion
	}
}

// Host returns the lowercase host of rawURL without port, or "" when it has none.
func Host(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

// IsValidV3Address reports whether address ("<56 chars>.onion") is a v3
// onion address whose embedded checksum and version are correct.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	label, ok := strings.CutSuffix(address, OnionSuffix)
	if !ok || len(label) != onionV3Length || !isBase32(label) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(label))
	if err != nil || len(decoded) != 35 {
		return false
	}

	// public key (32) | checksum (2) | version (1)
	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return false
	}
	want := v3Checksum(pubkey, version)
	return checksum[0] == want[0] && checksum[1] == want[1]
}

// ComputeV3Address returns the v3 onion address of an ed25519 public key.
func ComputeV3Address(pubkey []byte) (string, error) {
	if len(pubkey) != 32 {
		return "", ErrInvalidPubKey
	}
	data := make([]byte, 0, 35)
	data = append(data, pubkey...)
	data = append(data, v3Checksum(pubkey, onionV3Version)...)
	data = append(data, onionV3Version)
	return strings.ToLower(base32.StdEncoding.EncodeToString(data)) + OnionSuffix, nil
}

// v3Checksum is the first two bytes of SHA3-256(".onion checksum" | pubkey | version).
func v3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)
	return sum[:2]
}

func isBase32(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			return false
		}
	}
	return true
}
