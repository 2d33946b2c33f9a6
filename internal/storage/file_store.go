package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// FileStore는 역할 슬롯 문서를 메모리에 두고 Save 때마다 JSON 파일 전체를 다시 씁니다.
type FileStore struct {
	path    string
	doc     Document
	skipped []string
	mu      sync.RWMutex
	// saveMu는 인코딩부터 파일 쓰기까지를 직렬화해 마지막 쓰기가 최신 문서가 되도록 합니다.
	saveMu sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore는 path에 저장하는 FileStore를 생성합니다. Load를 호출하기 전에는 비어 있습니다.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		doc:  make(Document),
	}
}

// OpenFileStore는 FileStore를 생성하고 파일에서 문서를 읽어옵니다.
func OpenFileStore(path string) (*FileStore, error) {
	s := NewFileStore(path)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path는 저장 파일 경로를 반환합니다.
func (s *FileStore) Path() string {
	return s.path
}

// Load는 파일에서 문서를 읽습니다. 파일이 없으면 빈 문서로 시작합니다.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = make(Document)
			s.skipped = nil
			return nil
		}
		return fmt.Errorf("storage: reading role cache: %w", err)
	}

	doc, skipped, err := DecodeDocument(data)
	if err != nil {
		return err
	}
	s.doc = doc
	s.skipped = skipped
	return nil
}

// Skipped는 마지막 Load에서 슬롯 번호가 잘못되어 버린 항목("user/slot")을 반환합니다.
func (s *FileStore) Skipped() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.skipped...)
}

// Slots는 사용자의 슬롯 맵 복사본을 반환합니다.
func (s *FileStore) Slots(_ context.Context, userID string) (map[int]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots, ok := s.doc[userID]
	if !ok {
		return nil, nil
	}
	out := make(map[int]string, len(slots))
	for slot, roleID := range slots {
		out[slot] = roleID
	}
	return out, nil
}

// Get은 (userID, slot)의 역할 ID를 반환합니다.
func (s *FileStore) Get(_ context.Context, userID string, slot int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roleID, ok := s.doc[userID][slot]
	return roleID, ok, nil
}

// Set은 (userID, slot)에 역할 ID를 기록합니다. 메모리만 변경합니다.
func (s *FileStore) Set(_ context.Context, userID string, slot int, roleID string) error {
	if err := validateKey(userID, slot); err != nil {
		return err
	}
	if roleID == "" {
		return fmt.Errorf("storage: empty roleID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.doc[userID]
	if !ok {
		slots = make(map[int]string)
		s.doc[userID] = slots
	}
	slots[slot] = roleID
	return nil
}

// Delete는 (userID, slot)을 제거합니다. 메모리만 변경합니다.
func (s *FileStore) Delete(_ context.Context, userID string, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.doc[userID]
	if !ok {
		return nil
	}
	delete(slots, slot)
	if len(slots) == 0 {
		delete(s.doc, userID)
	}
	return nil
}

// Save는 문서 전체를 들여쓰기 된 JSON으로 파일에 씁니다.
func (s *FileStore) Save(_ context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	data, err := EncodeDocument(s.doc)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("storage: creating role cache directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("storage: writing role cache: %w", err)
	}
	return nil
}

// Snapshot은 전체 문서의 복사본을 반환합니다.
func (s *FileStore) Snapshot(_ context.Context) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), nil
}

// EncodeDocument는 문서를 두 칸 들여쓰기 JSON으로 직렬화합니다.
func EncodeDocument(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("storage: encoding role cache: %w", err)
	}
	return data, nil
}

// DecodeDocument는 JSON 문서를 파싱합니다.
// 빈 사용자 항목은 버리고, 1 이상의 정수가 아닌 슬롯 키("two", "0")는 건너뛴 뒤
// "user/slot" 형태로 skipped에 담아 반환합니다.
func DecodeDocument(data []byte) (doc Document, skipped []string, err error) {
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("storage: parsing role cache: %w", err)
	}

	doc = make(Document, len(raw))
	for userID, slots := range raw {
		for key, roleID := range slots {
			slot, convErr := strconv.Atoi(key)
			if convErr != nil || slot < 1 {
				skipped = append(skipped, userID+"/"+key)
				continue
			}
			if doc[userID] == nil {
				doc[userID] = make(map[int]string)
			}
			doc[userID][slot] = roleID
		}
	}
	sort.Strings(skipped)
	return doc, skipped, nil
}
