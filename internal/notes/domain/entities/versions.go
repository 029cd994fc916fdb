package entities

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// MaxVersions - максимальное число снимков в истории заметки.
const MaxVersions = 5

// Version - снимок заметки под номером слота.
type Version struct {
	Slot      int
	Title     string
	Content   string
	UpdatedAt time.Time
}

// Versions - ограниченная история снимков, упорядоченная по возрастанию номера слота.
//
// Номер слота назначается один раз и больше никогда не используется повторно,
// даже после вытеснения. Значение неизменяемо: AppendSnapshot возвращает новую историю.
type Versions struct {
	entries []Version
}

// NewVersions собирает историю из произвольного набора снимков.
// Снимки упорядочиваются по слоту; при превышении MaxVersions остаются самые новые.
func NewVersions(entries ...Version) (Versions, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b Version) int { return a.Slot - b.Slot })

	for i, v := range sorted {
		if v.Slot <= 0 {
			return Versions{}, fmt.Errorf("%w: slot %d", ErrInvalidSlot, v.Slot)
		}
		if i > 0 && sorted[i-1].Slot == v.Slot {
			return Versions{}, fmt.Errorf("%w: duplicate slot %d", ErrInvalidSlot, v.Slot)
		}
	}
	if len(sorted) > MaxVersions {
		sorted = sorted[len(sorted)-MaxVersions:]
	}
	return Versions{entries: sorted}, nil
}

// AppendSnapshot возвращает новую историю с добавленным снимком.
// При полной истории вытесняется снимок с наименьшим номером слота;
// новый снимок получает номер max+1 (или 1 для пустой истории).
func (v Versions) AppendSnapshot(title, content string, updatedAt time.Time) Versions {
	kept := v.entries
	if len(kept) >= MaxVersions {
		kept = kept[len(kept)-MaxVersions+1:]
	}

	next := make([]Version, len(kept), len(kept)+1)
	copy(next, kept)
	next = append(next, Version{
		Slot:      v.NextSlot(),
		Title:     title,
		Content:   content,
		UpdatedAt: updatedAt,
	})
	return Versions{entries: next}
}

// NextSlot возвращает номер, который получит следующий снимок.
func (v Versions) NextSlot() int {
	if len(v.entries) == 0 {
		return 1
	}
	return v.entries[len(v.entries)-1].Slot + 1
}

// Len возвращает количество снимков.
func (v Versions) Len() int {
	return len(v.entries)
}

// Slots возвращает номера слотов по возрастанию.
func (v Versions) Slots() []int {
	slots := make([]int, len(v.entries))
	for i, e := range v.entries {
		slots[i] = e.Slot
	}
	return slots
}

// Entries возвращает копию снимков по возрастанию слота.
func (v Versions) Entries() []Version {
	return slices.Clone(v.entries)
}

// Get возвращает снимок по номеру слота.
func (v Versions) Get(slot int) (Version, bool) {
	i, found := slices.BinarySearchFunc(v.entries, slot, func(e Version, s int) int { return e.Slot - s })
	if !found {
		return Version{}, false
	}
	return v.entries[i], true
}

// Latest возвращает последний снимок.
func (v Versions) Latest() (Version, bool) {
	if len(v.entries) == 0 {
		return Version{}, false
	}
	return v.entries[len(v.entries)-1], true
}

// versionJSON - формат хранения снимка.
type versionJSON struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
}

// timestampLayouts - допустимые форматы updated_at; записи без зоны считаются UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// MarshalJSON сериализует историю в объект {"<slot>": {title, content, updated_at}}.
func (v Versions) MarshalJSON() ([]byte, error) {
	out := make(map[string]versionJSON, len(v.entries))
	for _, e := range v.entries {
		out[strconv.Itoa(e.Slot)] = versionJSON{
			Title:     e.Title,
			Content:   e.Content,
			UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON разбирает формат хранения. Ключи, не являющиеся положительными
// десятичными числами, пропускаются.
func (v *Versions) UnmarshalJSON(data []byte) error {
	var raw map[string]versionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode versions: %w", err)
	}

	entries := make([]Version, 0, len(raw))
	for key, value := range raw {
		slot, err := strconv.Atoi(key)
		if err != nil || slot <= 0 {
			continue
		}
		updatedAt, err := parseTimestamp(value.UpdatedAt)
		if err != nil {
			return fmt.Errorf("version %d: %w", slot, err)
		}
		entries = append(entries, Version{
			Slot:      slot,
			Title:     value.Title,
			Content:   value.Content,
			UpdatedAt: updatedAt,
		})
	}

	parsed, err := NewVersions(entries...)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
