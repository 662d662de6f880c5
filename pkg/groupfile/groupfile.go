// Package groupfile loads and writes multicast group snapshots: the cache
// side of a verify run, the input of an apply run, or a dump of APPL_DB.
//
//	groups:
//	  - group_id: 10
//	    replicas:
//	      - {port: Ethernet0, instance: 0}
//	      - {port: Ethernet4, instance: 1}
//
// JSON documents with the same shape parse as well.
package groupfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/replsync/pkg/replication"
	"github.com/newtron-network/replsync/pkg/util"
)

// File is the on-disk document.
type File struct {
	Groups []replication.MulticastGroupEntry `yaml:"groups" json:"groups"`
}

// Load reads and validates a snapshot file.
func Load(path string) ([]replication.MulticastGroupEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading group file: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes and validates a snapshot document. An empty document has no
// groups.
func Parse(data []byte) ([]replication.MulticastGroupEntry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing group YAML: %w", err)
	}
	if err := validate(f.Groups); err != nil {
		return nil, err
	}
	if f.Groups == nil {
		f.Groups = []replication.MulticastGroupEntry{}
	}
	return f.Groups, nil
}

func validate(groups []replication.MulticastGroupEntry) error {
	v := &util.ValidationBuilder{}
	seen := make(map[uint32]bool, len(groups))
	for _, g := range groups {
		if seen[g.GroupID] {
			v.AddErrorf("group %d: defined more than once", g.GroupID)
		}
		seen[g.GroupID] = true
		var verr *util.ValidationError
		if errors.As(g.Validate(), &verr) {
			for _, msg := range verr.Errors {
				v.AddErrorf("%s", msg)
			}
		}
	}
	return v.Build()
}

// Marshal renders entries sorted by group id with normalized replicas.
func Marshal(entries []replication.MulticastGroupEntry) ([]byte, error) {
	f := File{Groups: make([]replication.MulticastGroupEntry, 0, len(entries))}
	for _, e := range entries {
		f.Groups = append(f.Groups, e.Normalize())
	}
	sort.Slice(f.Groups, func(i, j int) bool { return f.Groups[i].GroupID < f.Groups[j].GroupID })
	return yaml.Marshal(&f)
}

// Write stores entries at path, creating the parent directory.
func Write(path string, entries []replication.MulticastGroupEntry) error {
	data, err := Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding group file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
