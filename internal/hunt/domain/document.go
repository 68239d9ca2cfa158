package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

// ToDocument aplana la hunt con los nombres de campo públicos. Las fechas se
// mantienen como time.Time para que los filtros de rango comparen fechas.
func ToDocument(h *Hunt) query.Document {
	items := make([]interface{}, len(h.Items))
	for i, it := range h.Items {
		items[i] = map[string]interface{}{
			"name":      it.Name,
			"clue":      it.Clue,
			"image":     it.Image,
			"completed": it.Completed,
		}
	}
	participants := make([]interface{}, len(h.Participants))
	for i, p := range h.Participants {
		participants[i] = p
	}

	doc := query.Document{
		"_id":          h.ID.String(),
		"title":        h.Title,
		"description":  h.Description,
		"difficulty":   h.Difficulty,
		"items":        items,
		"startDate":    h.StartDate.UTC(),
		"endDate":      h.EndDate.UTC(),
		"createdAt":    h.CreatedAt.UTC(),
		"participants": participants,
		"completed":    h.Completed,
		"__v":          h.Version,
	}
	if h.CreatedBy != "" {
		doc["createdBy"] = h.CreatedBy
	}
	if h.Winner != "" {
		doc["winner"] = h.Winner
	}
	return doc
}

// FromDocument reconstruye la hunt desde un documento completo (sin proyección).
func FromDocument(doc query.Document) (*Hunt, error) {
	idStr, _ := doc["_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid hunt id %q: %w", idStr, err)
	}

	h := &Hunt{
		ID:          id,
		Title:       str(doc["title"]),
		Description: str(doc["description"]),
		Difficulty:  str(doc["difficulty"]),
		StartDate:   timeOf(doc["startDate"]),
		EndDate:     timeOf(doc["endDate"]),
		CreatedAt:   timeOf(doc["createdAt"]),
		CreatedBy:   str(doc["createdBy"]),
		Completed:   boolOf(doc["completed"]),
		Winner:      str(doc["winner"]),
		Version:     int64Of(doc["__v"]),
	}
	for _, raw := range sliceOf(doc["items"]) {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		h.Items = append(h.Items, Item{
			Name:      str(m["name"]),
			Clue:      str(m["clue"]),
			Image:     str(m["image"]),
			Completed: boolOf(m["completed"]),
		})
	}
	for _, raw := range sliceOf(doc["participants"]) {
		h.Participants = append(h.Participants, str(raw))
	}
	h.Normalize()
	return h, nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func boolOf(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func timeOf(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func int64Of(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func sliceOf(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []string:
		out := make([]interface{}, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out
	}
	return nil
}
