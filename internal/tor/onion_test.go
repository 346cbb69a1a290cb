package tor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testV3Address(t *testing.T) string {
	t.Helper()

	addr, err := ComputeV3Address(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("ComputeV3Address: %v", err)
	}
	return addr
}

func TestComputeV3Address(t *testing.T) {
	t.Parallel()

	t.Run("produces a valid address", func(t *testing.T) {
		t.Parallel()

		addr := testV3Address(t)
		if len(addr) != 62 || !strings.HasSuffix(addr, OnionSuffix) {
			t.Fatalf("unexpected address %q", addr)
		}
		if !IsValidV3Address(addr) {
			t.Errorf("IsValidV3Address(%q) = false", addr)
		}
		if !IsValidV3Address(strings.ToUpper(addr[:56]) + OnionSuffix) {
			t.Error("validation should be case-insensitive")
		}
	})

	t.Run("rejects short keys", func(t *testing.T) {
		t.Parallel()

		if _, err := ComputeV3Address([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidPubKey) {
			t.Errorf("expected ErrInvalidPubKey, got %v", err)
		}
	})
}

func TestIsValidV3Address(t *testing.T) {
	t.Parallel()

	valid := testV3Address(t)
	// Flip one character so the checksum no longer matches.
	flipped := []byte(valid)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}

	tests := []struct {
		name string
		addr string
		want bool
	}{
		{name: "valid", addr: valid, want: true},
		{name: "bad checksum", addr: string(flipped), want: false},
		{name: "no suffix", addr: valid[:56], want: false},
		{name: "too short", addr: "abc.onion", want: false},
		{name: "invalid base32", addr: strings.Repeat("1", 56) + ".onion", want: false},
		{name: "v2 length", addr: "expyuzz4wqqyqhjn.onion", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidV3Address(tt.addr); got != tt.want {
				t.Errorf("IsValidV3Address(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	v3 := testV3Address(t)

	tests := []struct {
		name string
		url  string
		want AddressKind
	}{
		{name: "v3 with scheme", url: "http://" + v3 + "/index.html", want: AddressV3},
		{name: "v3 without scheme", url: v3, want: AddressV3},
		{name: "v3 with port", url: "http://" + v3 + ":8080/", want: AddressV3},
		{name: "v3 subdomain", url: "http://www." + v3, want: AddressV3},
		{name: "v2", url: "http://expyuzz4wqqyqhjn.onion", want: AddressV2},
		{name: "malformed onion", url: "http://not-an-onion.onion", want: AddressBadOnion},
		{name: "clearnet", url: "https://example.com/", want: AddressClearnet},
		{name: "empty", url: "", want: AddressUnparseable},
		{name: "garbage", url: "http://%zz", want: AddressUnparseable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "http://Example.ONION:80/a", want: "example.onion"},
		{in: "example.onion/path", want: "example.onion"},
		{in: "  https://x.onion  ", want: "x.onion"},
	}
	for _, tt := range tests {
		if got := Host(tt.in); got != tt.want {
			t.Errorf("Host(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddressKindString(t *testing.T) {
	t.Parallel()

	for kind, want := range map[AddressKind]string{
		AddressV3:          "onion v3",
		AddressV2:          "retired onion v2",
		AddressBadOnion:    "malformed onion",
		AddressClearnet:    "clearnet",
		AddressUnparseable: "unparseable",
	} {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
