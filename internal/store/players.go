package store

import (
	"fmt"
	"strconv"

	"tombola/internal/models"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// DecodePlayers parses the JSON5 text of a players file into its record
// tree. The top level must be an array; nested arrays are groups.
func DecodePlayers(data []byte) ([]models.PlayerRecord, error) {
	var raw []interface{}
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	return decodeRecords(raw)
}

func decodeRecords(raw []interface{}) ([]models.PlayerRecord, error) {
	records := make([]models.PlayerRecord, 0, len(raw))
	for i, item := range raw {
		record, err := decodeRecord(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeRecord(item interface{}) (models.PlayerRecord, error) {
	switch v := item.(type) {
	case []interface{}:
		group, err := decodeRecords(v)
		if err != nil {
			return models.PlayerRecord{}, err
		}
		return models.PlayerRecord{Group: group}, nil
	case map[string]interface{}:
		record := models.PlayerRecord{
			ID:             stringField(v, "id"),
			Name:           stringField(v, "name"),
			Disambiguation: stringField(v, "disambiguation"),
			Email:          stringField(v, "email"),
			Phone:          stringField(v, "phone"),
		}
		if participate, ok := v["participate"].(bool); ok {
			record.Participate = &participate
		}
		if record.Name == "" && record.ID == "" {
			return models.PlayerRecord{}, fmt.Errorf("%w: needs a name or an id", models.ErrInvalidRecord)
		}
		return record, nil
	default:
		return models.PlayerRecord{}, fmt.Errorf("%w: unexpected %T", models.ErrInvalidRecord, item)
	}
}

// stringField reads a scalar field as a string. Phone numbers are often
// written as bare numbers.
func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

