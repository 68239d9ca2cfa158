package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
)

// JSONHuntStorage lee y escribe volcados de hunts en un fichero JSON.
type JSONHuntStorage struct {
	filePath string
	mu       sync.Mutex
}

func NewJSONHuntStorage(filePath string) *JSONHuntStorage {
	return &JSONHuntStorage{filePath: filePath}
}

// Load devuelve las hunts del fichero. Un fichero inexistente o vacío es una lista vacía.
func (s *JSONHuntStorage) Load(ctx context.Context) ([]*huntDomain.Hunt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*huntDomain.Hunt{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []*huntDomain.Hunt{}, nil
	}

	var hunts []*huntDomain.Hunt
	if err := json.Unmarshal(data, &hunts); err != nil {
		return nil, err
	}
	return hunts, nil
}

// Save sobrescribe el fichero con las hunts indicadas.
func (s *JSONHuntStorage) Save(ctx context.Context, hunts []*huntDomain.Hunt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(hunts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}

var _ huntDomain.HuntSeedStorage = (*JSONHuntStorage)(nil)
