package replication

import (
	"strconv"
	"strings"

	"github.com/newtron-network/replsync/pkg/util"
)

// ReplicaPlaceholder is the value stored for every replica field. APPL_DB
// hashes need a value; nothing reads it.
const ReplicaPlaceholder = "replica"

// EncodeReplica returns the field name for a replica: port + ":0x" + hex(instance).
func EncodeReplica(port string, instance uint32) string {
	return port + ":0x" + strconv.FormatUint(uint64(instance), 16)
}

// DecodeReplica splits a field name on its last ':' into port and instance.
func DecodeReplica(field string) (Replica, error) {
	split := strings.LastIndex(field, ":")
	if split < 0 {
		return Replica{}, util.NewEncodingError("replica field", field, "expected <port>:0x<instance>")
	}
	port, instanceStr := field[:split], field[split+1:]

	instance, err := parseHex32(instanceStr)
	if err != nil {
		return Replica{}, util.NewEncodingError("replica instance", instanceStr, "in field '"+field+"' is not a 32-bit hex value")
	}
	return Replica{Port: port, Instance: instance}, nil
}
