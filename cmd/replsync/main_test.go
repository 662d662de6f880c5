package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newtron-network/replsync/pkg/appdb"
	"github.com/newtron-network/replsync/pkg/audit"
	"github.com/newtron-network/replsync/pkg/cli"
	"github.com/newtron-network/replsync/pkg/groupfile"
	"github.com/newtron-network/replsync/pkg/replication"
	"github.com/newtron-network/replsync/pkg/settings"
)

func init() {
	cli.SetColor(false)
}

func sampleGroups() []replication.MulticastGroupEntry {
	return []replication.MulticastGroupEntry{
		{GroupID: 10, Replicas: []replication.Replica{{Port: "Ethernet4", Instance: 1}, {Port: "Ethernet0", Instance: 0}}},
		{GroupID: 255},
	}
}

func seeded(t *testing.T) *appdb.MemoryDB {
	t.Helper()
	db := appdb.NewMemoryDB()
	if _, err := runApply(&bytes.Buffer{}, db, replication.Insert, sampleGroups(), true); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	return db
}

func TestRunApply_DryRun(t *testing.T) {
	db := appdb.NewMemoryDB()
	var out bytes.Buffer

	b, err := runApply(&out, db, replication.Insert, sampleGroups(), false)
	if err != nil {
		t.Fatalf("runApply: %v", err)
	}
	if b.Len() != 2 {
		t.Errorf("batch has %d updates, want 2", b.Len())
	}
	keys, _ := db.Keys()
	if len(keys) != 0 {
		t.Errorf("dry run wrote %v", keys)
	}
	for _, want := range []string{"INSERT 2 replication group(s)", "[SET] REPLICATION_IP_MULTICAST_TABLE:a", "DRY-RUN"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunApply_Execute(t *testing.T) {
	db := seeded(t)

	entries, err := replication.ReadAll(db)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ReadAll() = %+v", entries)
	}

	var out bytes.Buffer
	if _, err := runApply(&out, db, replication.Delete, []replication.MulticastGroupEntry{{GroupID: 10}}, true); err != nil {
		t.Fatalf("runApply delete: %v", err)
	}
	if !strings.Contains(out.String(), "[DEL] REPLICATION_IP_MULTICAST_TABLE:a") {
		t.Errorf("output:\n%s", out.String())
	}
	keys, _ := db.Keys()
	if len(keys) != 1 || keys[0] != "REPLICATION_IP_MULTICAST_TABLE:ff" {
		t.Errorf("keys after delete = %v", keys)
	}
}

func TestRunApply_Unsupported(t *testing.T) {
	if _, err := runApply(&bytes.Buffer{}, appdb.NewMemoryDB(), replication.Unspecified, sampleGroups(), true); err == nil {
		t.Error("runApply() with Unspecified should fail")
	}
}

func TestRunShow(t *testing.T) {
	db := seeded(t)
	db.Set("FIXED_ROUTER_INTERFACE_TABLE:r1", map[string]string{"port": "Ethernet0"})

	var out bytes.Buffer
	if err := runShow(&out, db, nil, false); err != nil {
		t.Fatalf("runShow: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Ethernet0_0, Ethernet4_1") {
		t.Errorf("replicas missing:\n%s", text)
	}
	if strings.Index(text, "REPLICATION_IP_MULTICAST_TABLE:a") > strings.Index(text, "REPLICATION_IP_MULTICAST_TABLE:ff") {
		t.Errorf("groups not sorted:\n%s", text)
	}

	out.Reset()
	if err := runShow(&out, db, []uint32{255}, true); err != nil {
		t.Fatalf("runShow json: %v", err)
	}
	var got []replication.MulticastGroupEntry
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out.String())
	}
	if len(got) != 1 || got[0].GroupID != 255 {
		t.Errorf("show 255 = %+v", got)
	}
}

func TestRunShow_Malformed(t *testing.T) {
	db := appdb.NewMemoryDB()
	db.Set("REPLICATION_IP_MULTICAST_TABLE:zz", map[string]string{"Ethernet0:0x0": "replica"})
	if err := runShow(&bytes.Buffer{}, db, nil, false); err == nil {
		t.Error("runShow() should fail on a malformed key")
	}
}

func TestParseGroupIDs(t *testing.T) {
	ids, err := parseGroupIDs([]string{"10", "0xff"})
	if err != nil {
		t.Fatalf("parseGroupIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 255 {
		t.Errorf("parseGroupIDs() = %v", ids)
	}
	for _, bad := range []string{"abc", "10x", "0x100000000", "-1"} {
		if _, err := parseGroupIDs([]string{bad}); err == nil {
			t.Errorf("parseGroupIDs(%q) should fail", bad)
		}
	}
}

func TestRunVerify(t *testing.T) {
	db := seeded(t)

	var out bytes.Buffer
	msgs, err := runVerify(&out, db, replication.NewEntryCacheFrom(sampleGroups()), false)
	if err != nil {
		t.Fatalf("runVerify: %v", err)
	}
	if len(msgs) != 0 || !strings.Contains(out.String(), "matches the cache (2 groups)") {
		t.Errorf("msgs = %v, output:\n%s", msgs, out.String())
	}

	cache := replication.NewEntryCacheFrom([]replication.MulticastGroupEntry{
		{GroupID: 10, Replicas: []replication.Replica{{Port: "Ethernet0", Instance: 0}, {Port: "Ethernet8", Instance: 2}}},
	})
	out.Reset()
	msgs, err = runVerify(&out, db, cache, false)
	if err != nil {
		t.Fatalf("runVerify: %v", err)
	}
	want := []string{
		"Packet replication cache is missing replica Ethernet4_1 for group ID 10",
		"APP DB is missing replica Ethernet8_2 for group ID 10",
		"Packet replication cache is missing multicast group ID 255",
	}
	if strings.Join(msgs, "\n") != strings.Join(want, "\n") {
		t.Errorf("msgs =\n%s\nwant\n%s", strings.Join(msgs, "\n"), strings.Join(want, "\n"))
	}
	if !strings.Contains(out.String(), "3 discrepancies") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestRunDumpAndOffline(t *testing.T) {
	db := seeded(t)
	path := filepath.Join(t.TempDir(), "snap.yaml")

	n, err := runDump(&bytes.Buffer{}, db, path)
	if err != nil || n != 2 {
		t.Fatalf("runDump() = %d, %v", n, err)
	}

	s, err := openOffline(path)
	if err != nil {
		t.Fatalf("openOffline: %v", err)
	}
	defer s.Close()
	if _, err := runApply(&bytes.Buffer{}, s.db, replication.Modify,
		[]replication.MulticastGroupEntry{{GroupID: 255, Replicas: []replication.Replica{{Port: "Ethernet12", Instance: 0}}}}, true); err != nil {
		t.Fatalf("runApply: %v", err)
	}
	if err := s.persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}

	entries, err := groupfile.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 || entries[1].GroupID != 255 || len(entries[1].Replicas) != 1 {
		t.Errorf("snapshot after modify = %+v", entries)
	}

	var out bytes.Buffer
	if _, err := runDump(&out, s.db, ""); err != nil {
		t.Fatalf("runDump stdout: %v", err)
	}
	if !strings.Contains(out.String(), "Ethernet12") {
		t.Errorf("stdout dump:\n%s", out.String())
	}
}

func TestUpdateCacheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")

	if err := updateCacheFile(path, replication.Insert, sampleGroups()); err != nil {
		t.Fatalf("updateCacheFile insert: %v", err)
	}
	if err := updateCacheFile(path, replication.Delete, []replication.MulticastGroupEntry{{GroupID: 255}}); err != nil {
		t.Fatalf("updateCacheFile delete: %v", err)
	}
	entries, err := groupfile.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 || entries[0].GroupID != 10 {
		t.Errorf("cache = %+v", entries)
	}
}

func TestPrintEvents(t *testing.T) {
	var out bytes.Buffer
	printEvents(&out, nil)
	if !strings.Contains(out.String(), "No audit events found") {
		t.Errorf("output: %q", out.String())
	}

	out.Reset()
	e := audit.NewEvent("10.0.0.1:6379", audit.OpApply).WithExecuteMode(false).WithSuccess()
	e.UpdateType = "MODIFY"
	printEvents(&out, []*audit.Event{e})
	for _, want := range []string{"10.0.0.1:6379", "apply MODIFY", "dry-run"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestAuditFilter(t *testing.T) {
	auditGroup, auditLast = "0xa", "1h"
	defer func() { auditGroup, auditLast = "", "" }()

	f, err := auditFilter()
	if err != nil {
		t.Fatalf("auditFilter: %v", err)
	}
	if f.GroupID == nil || *f.GroupID != 10 || f.StartTime.IsZero() {
		t.Errorf("filter = %+v", f)
	}

	auditLast = "yesterday"
	if _, err := auditFilter(); err == nil {
		t.Error("auditFilter() should reject a bad duration")
	}
}

func TestShowSettings(t *testing.T) {
	var out bytes.Buffer
	showSettings(&out, &settings.Settings{SSHHost: "leaf1", SSHPassword: "secret"})
	text := out.String()
	if strings.Contains(text, "secret") {
		t.Error("password printed in clear")
	}
	for _, want := range []string{"leaf1", "127.0.0.1:6379 (default)", "P4RT_TABLE (default)", "(not set)"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestIsMetaCommand(t *testing.T) {
	if !isMetaCommand(settingsShowCmd) || !isMetaCommand(versionCmd) {
		t.Error("settings and version are meta commands")
	}
	if isMetaCommand(showCmd) || isMetaCommand(auditListCmd) {
		t.Error("show and audit list need settings")
	}
}
