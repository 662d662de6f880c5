package replication

import (
	"strconv"
	"strings"

	"github.com/newtron-network/replsync/pkg/util"
)

const (
	// TableName is the APPL_DB P4RT table holding multicast groups.
	TableName = "REPLICATION_IP_MULTICAST_TABLE"

	// KeySeparator separates the table name from the group id.
	KeySeparator = ":"
)

// TablePrefix returns "REPLICATION_IP_MULTICAST_TABLE:".
func TablePrefix() string {
	return TableName + KeySeparator
}

// BuildKey returns the APPL_DB key for a group: the table prefix followed by
// the group id in lowercase hex without padding or 0x marker.
func BuildKey(groupID uint32) string {
	return TablePrefix() + strconv.FormatUint(uint64(groupID), 16)
}

// StripPrefix returns the group-id portion of an APPL_DB key. The key must
// start with the exact table prefix.
func StripPrefix(key string) (string, error) {
	if !strings.HasPrefix(key, TablePrefix()) {
		return "", util.NewEncodingError("key", key, "missing "+TablePrefix()+" prefix")
	}
	return key[len(TablePrefix()):], nil
}

// ParseGroupID parses the hex group id from a stripped key. A leading 0x is
// tolerated but never generated.
func ParseGroupID(s string) (uint32, error) {
	id, err := parseHex32(s)
	if err != nil {
		return 0, util.NewEncodingError("group id", s, "not a 32-bit hex value")
	}
	return id, nil
}

// parseHex32 parses an unsigned 32-bit hex number with an optional 0x/0X
// marker.
func parseHex32(s string) (uint32, error) {
	digits := s
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
