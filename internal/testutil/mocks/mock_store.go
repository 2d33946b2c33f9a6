package mocks

import (
	"context"
	"sync"

	"github.com/cnap-oss/mybots/internal/storage"
)

// MockStore는 파일을 건드리지 않는 storage.Store 구현입니다.
// Save할 때마다 FileStore와 같은 JSON 문서를 Saved에 기록합니다.
type MockStore struct {
	mu  sync.Mutex
	doc storage.Document

	// Saved는 Save 호출마다 직렬화된 문서입니다.
	Saved [][]byte

	// SaveErr가 설정되면 Save가 이 에러를 반환합니다.
	SaveErr error
}

var _ storage.Store = (*MockStore)(nil)

// NewMockStore는 doc 복사본으로 시작하는 MockStore를 생성합니다.
func NewMockStore(doc storage.Document) *MockStore {
	if doc == nil {
		doc = storage.Document{}
	}
	return &MockStore{doc: doc.Clone()}
}

func (s *MockStore) Slots(_ context.Context, userID string) (map[int]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots, ok := s.doc[userID]
	if !ok {
		return nil, nil
	}
	out := make(map[int]string, len(slots))
	for k, v := range slots {
		out[k] = v
	}
	return out, nil
}

func (s *MockStore) Get(_ context.Context, userID string, slot int) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roleID, ok := s.doc[userID][slot]
	return roleID, ok, nil
}

func (s *MockStore) Set(_ context.Context, userID string, slot int, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot < 1 {
		return storage.ErrInvalidSlot
	}
	if s.doc[userID] == nil {
		s.doc[userID] = make(map[int]string)
	}
	s.doc[userID][slot] = roleID
	return nil
}

func (s *MockStore) Delete(_ context.Context, userID string, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc[userID], slot)
	if len(s.doc[userID]) == 0 {
		delete(s.doc, userID)
	}
	return nil
}

func (s *MockStore) Save(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	data, err := storage.EncodeDocument(s.doc)
	if err != nil {
		return err
	}
	s.Saved = append(s.Saved, data)
	return nil
}

func (s *MockStore) Snapshot(_ context.Context) (storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

// LastSaved는 마지막으로 저장된 JSON 문서를 문자열로 반환합니다.
func (s *MockStore) LastSaved() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Saved) == 0 {
		return ""
	}
	return string(s.Saved[len(s.Saved)-1])
}
