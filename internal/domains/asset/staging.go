package asset

import (
	"context"
	"io"
)

// Staging tracks assets written during one operation. Until Commit is
// called, Release deletes every one of them.
//
//	st := m.Stage()
//	defer st.Release(ctx)
//	ref, err := st.StoreImage(ctx, r, name)
//	...persist...
//	st.Commit()
type Staging struct {
	m         *Manager
	refs      []string
	committed bool
}

func (m *Manager) Stage() *Staging {
	return &Staging{m: m}
}

func (s *Staging) Store(ctx context.Context, payload io.Reader, originalName string) (string, error) {
	ref, err := s.m.Store(ctx, payload, originalName)
	if err != nil {
		return "", err
	}
	s.refs = append(s.refs, ref)
	return ref, nil
}

func (s *Staging) StoreImage(ctx context.Context, payload io.Reader, originalName string) (string, error) {
	ref, err := s.m.StoreImage(ctx, payload, originalName)
	if err != nil {
		return "", err
	}
	s.refs = append(s.refs, ref)
	return ref, nil
}

// Refs returns the references staged so far.
func (s *Staging) Refs() []string {
	return append([]string(nil), s.refs...)
}

func (s *Staging) Commit() {
	s.committed = true
}

// Release is a no-op after Commit.
func (s *Staging) Release(ctx context.Context) {
	if s.committed {
		return
	}
	for _, ref := range s.refs {
		s.m.Remove(ctx, ref)
	}
	s.refs = nil
}
