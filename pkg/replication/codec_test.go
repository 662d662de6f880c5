package replication

import (
	"errors"
	"testing"

	"github.com/newtron-network/replsync/pkg/util"
)

func TestBuildKey(t *testing.T) {
	tests := []struct {
		groupID uint32
		want    string
	}{
		{0, "REPLICATION_IP_MULTICAST_TABLE:0"},
		{10, "REPLICATION_IP_MULTICAST_TABLE:a"},
		{255, "REPLICATION_IP_MULTICAST_TABLE:ff"},
		{0x1000, "REPLICATION_IP_MULTICAST_TABLE:1000"},
		{0xFFFFFFFF, "REPLICATION_IP_MULTICAST_TABLE:ffffffff"},
	}
	for _, tt := range tests {
		if got := BuildKey(tt.groupID); got != tt.want {
			t.Errorf("BuildKey(%d) = %q, want %q", tt.groupID, got, tt.want)
		}
	}
}

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"REPLICATION_IP_MULTICAST_TABLE:a", "a", false},
		{"REPLICATION_IP_MULTICAST_TABLE:", "", false},
		{"wrongtable:a", "", true},
		{"REPLICATION_IP_MULTICAST_TABLE|a", "", true},
		{"REPLICATION_IP_MULTICAST_TABLEa", "", true},
		{"replication_ip_multicast_table:a", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := StripPrefix(tt.key)
			if tt.wantErr {
				if !errors.Is(err, util.ErrInvalidEncoding) {
					t.Fatalf("StripPrefix(%q) error = %v, want ErrInvalidEncoding", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("StripPrefix(%q) unexpected error: %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("StripPrefix(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseGroupID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"a", 10, false},
		{"A", 10, false},
		{"0", 0, false},
		{"ffffffff", 0xFFFFFFFF, false},
		{"0x1f", 31, false},
		{"", 0, true},
		{"0x", 0, true},
		{"zz", 0, true},
		{"-1", 0, true},
		{"+1", 0, true},
		{"1_0", 0, true},
		{"100000000", 0, true}, // overflows 32 bits
		{" a", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGroupID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, util.ErrInvalidEncoding) {
					t.Fatalf("ParseGroupID(%q) error = %v, want ErrInvalidEncoding", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGroupID(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseGroupID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	for _, id := range []uint32{0, 1, 7, 10, 16, 0xabcdef, 0x7fffffff, 0xffffffff} {
		stripped, err := StripPrefix(BuildKey(id))
		if err != nil {
			t.Fatalf("StripPrefix(BuildKey(%d)): %v", id, err)
		}
		got, err := ParseGroupID(stripped)
		if err != nil {
			t.Fatalf("ParseGroupID(%q): %v", stripped, err)
		}
		if got != id {
			t.Errorf("round trip of %d gave %d", id, got)
		}
	}
}

func TestEncodeReplica(t *testing.T) {
	tests := []struct {
		port     string
		instance uint32
		want     string
	}{
		{"Ethernet0", 0, "Ethernet0:0x0"},
		{"Ethernet4", 1, "Ethernet4:0x1"},
		{"Ethernet8", 255, "Ethernet8:0xff"},
		{"Ethernet1/1/1", 0x10, "Ethernet1/1/1:0x10"},
		{"", 3, ":0x3"},
	}
	for _, tt := range tests {
		if got := EncodeReplica(tt.port, tt.instance); got != tt.want {
			t.Errorf("EncodeReplica(%q, %d) = %q, want %q", tt.port, tt.instance, got, tt.want)
		}
	}
}

func TestDecodeReplica(t *testing.T) {
	tests := []struct {
		field   string
		want    Replica
		wantErr bool
	}{
		{"Ethernet0:0x0", Replica{"Ethernet0", 0}, false},
		{"Ethernet4:0x1", Replica{"Ethernet4", 1}, false},
		{"Ethernet8:0xFF", Replica{"Ethernet8", 255}, false},
		{"Ethernet8:ff", Replica{"Ethernet8", 255}, false},
		// rightmost separator wins
		{"port:with:colons:0x2", Replica{"port:with:colons", 2}, false},
		{":0x3", Replica{"", 3}, false},
		{"Ethernet0", Replica{}, true},
		{"Ethernet0:", Replica{}, true},
		{"Ethernet0:0x", Replica{}, true},
		{"Ethernet0:0xzz", Replica{}, true},
		{"Ethernet0:0x100000000", Replica{}, true},
		{"", Replica{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := DecodeReplica(tt.field)
			if tt.wantErr {
				if !errors.Is(err, util.ErrInvalidEncoding) {
					t.Fatalf("DecodeReplica(%q) error = %v, want ErrInvalidEncoding", tt.field, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeReplica(%q) unexpected error: %v", tt.field, err)
			}
			if got != tt.want {
				t.Errorf("DecodeReplica(%q) = %+v, want %+v", tt.field, got, tt.want)
			}
		})
	}
}

func TestReplicaRoundTrip(t *testing.T) {
	replicas := []Replica{
		{"Ethernet0", 0},
		{"Ethernet4", 1},
		{"PortChannel100", 0xdead},
		{"a:b", 0xffffffff},
	}
	for _, r := range replicas {
		got, err := DecodeReplica(EncodeReplica(r.Port, r.Instance))
		if err != nil {
			t.Fatalf("DecodeReplica(EncodeReplica(%+v)): %v", r, err)
		}
		if got != r {
			t.Errorf("round trip of %+v gave %+v", r, got)
		}
	}
}

func TestReplicaString(t *testing.T) {
	// Diagnostic form uses a decimal instance, unlike the field encoding.
	if got := (Replica{"Ethernet4", 17}).String(); got != "Ethernet4_17" {
		t.Errorf("String() = %q, want %q", got, "Ethernet4_17")
	}
}
