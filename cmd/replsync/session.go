package main

import (
	"context"
	"fmt"

	"github.com/newtron-network/replsync/pkg/appdb"
	"github.com/newtron-network/replsync/pkg/groupfile"
	"github.com/newtron-network/replsync/pkg/replication"
	"github.com/newtron-network/replsync/pkg/util"
)

// session is an open APPL_DB, live or offline.
type session struct {
	db     appdb.DB
	target string

	client      *appdb.Client
	tunnel      *appdb.SSHTunnel
	offlinePath string
}

// openSession connects according to the global flags. With --offline the
// snapshot file is loaded into a MemoryDB.
func openSession(ctx context.Context) (*session, error) {
	if app.offlinePath != "" {
		return openOffline(app.offlinePath)
	}

	s := &session{target: app.redisAddr}
	addr := app.redisAddr
	if app.sshHost != "" {
		tunnel, err := appdb.NewSSHTunnel(appdb.TunnelConfig{
			Host:     app.sshHost,
			Port:     app.settings.GetSSHPort(),
			User:     app.settings.SSHUser,
			Password: app.settings.SSHPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel to %s: %w", app.sshHost, err)
		}
		s.tunnel = tunnel
		s.target = app.sshHost
		addr = tunnel.LocalAddr()
	}

	client := appdb.NewClient(appdb.Options{
		Addr:      addr,
		DB:        app.redisDB,
		Namespace: app.settings.GetNamespace(),
	}).WithContext(ctx)
	if err := client.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("connecting to APPL_DB at %s: %w", s.target, err)
	}
	s.client = client
	s.db = client
	util.WithField("target", s.target).Debugf("connected to APPL_DB")
	return s, nil
}

func openOffline(path string) (*session, error) {
	entries, err := groupfile.Load(path)
	if err != nil {
		return nil, err
	}
	db := appdb.NewMemoryDB()
	b := replication.NewBatch()
	if err := b.AddAll(replication.Insert, entries); err != nil {
		return nil, err
	}
	if err := db.Apply(b.Updates); err != nil {
		return nil, err
	}
	return &session{db: db, target: "offline:" + path, offlinePath: path}, nil
}

// persist writes an offline database back to its snapshot file.
func (s *session) persist() error {
	if s.offlinePath == "" {
		return nil
	}
	entries, err := replication.ReadAll(s.db)
	if err != nil {
		return err
	}
	return groupfile.Write(s.offlinePath, entries)
}

// Close releases the Redis connection and tunnel.
func (s *session) Close() error {
	var err error
	if s.client != nil {
		err = s.client.Close()
	}
	if s.tunnel != nil {
		if terr := s.tunnel.Close(); err == nil {
			err = terr
		}
	}
	return err
}

// withSession opens a session for the duration of fn.
func withSession(fn func(s *session) error) error {
	s, err := openSession(context.Background())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
