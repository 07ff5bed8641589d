package seqrets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// MULTI-ITEM FORMAT:
// The single data slot holds UTF-8 text: either a JSON array of items or, on cards
// written before multi-item support, one opaque string whose type comes from the
// status header's type byte.

// Item is one labeled secret stored on the card.
type Item struct {
	ItemType string `json:"item_type"`
	Label    string `json:"label"`
	Data     string `json:"data"`
}

// ItemSummary describes an item without its data.
type ItemSummary struct {
	Index    int    `json:"index"`
	ItemType string `json:"item_type"`
	Label    string `json:"label"`
	DataSize int    `json:"data_size"`
}

// Summary returns the summary of item at index.
func (i Item) Summary(index int) ItemSummary {
	return ItemSummary{
		Index:    index,
		ItemType: i.ItemType,
		Label:    i.Label,
		DataSize: len(i.Data),
	}
}

// wireItem rejects array elements missing a field.
type wireItem struct {
	ItemType *string `json:"item_type"`
	Label    *string `json:"label"`
	Data     *string `json:"data"`
}

// Decode parses the data slot. Content that is not a non-empty array of complete
// items is returned as a single legacy item.
func Decode(raw []byte, typ byte, label string) ([]Item, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if !utf8.Valid(raw) {
		return nil, newError(KindEncoding, nil, "card data is not valid UTF-8")
	}

	if items, ok := decodeArray(raw); ok {
		return items, nil
	}

	return []Item{{
		ItemType: TypeName(typ),
		Label:    label,
		Data:     string(raw),
	}}, nil
}

func decodeArray(raw []byte) ([]Item, bool) {
	var wire []wireItem
	if err := json.Unmarshal(raw, &wire); err != nil || len(wire) == 0 {
		return nil, false
	}

	items := make([]Item, 0, len(wire))
	for _, w := range wire {
		if w.ItemType == nil || w.Label == nil || w.Data == nil {
			return nil, false
		}
		items = append(items, Item{ItemType: *w.ItemType, Label: *w.Label, Data: *w.Data})
	}
	return items, true
}

// Encode serializes items as a compact JSON array and returns it with the summary
// label to store next to it. It fails before any card I/O if an item is not valid
// UTF-8 or the array would not fit.
func Encode(items []Item) ([]byte, string, error) {
	for i, item := range items {
		if !utf8.ValidString(item.ItemType) || !utf8.ValidString(item.Label) || !utf8.ValidString(item.Data) {
			return nil, "", newError(KindEncoding, nil, "item %d is not valid UTF-8", i)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return nil, "", newError(KindEncoding, err, "serialize items")
	}
	blob := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	if len(blob) > Capacity {
		return nil, "", newError(KindCapacityExceeded, nil, "%d bytes exceed card capacity of %d bytes", len(blob), Capacity)
	}
	return blob, SummaryLabel(len(items)), nil
}

// SummaryLabel is the card label of a multi-item blob.
func SummaryLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
