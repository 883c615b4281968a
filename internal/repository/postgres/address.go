package postgres

import (
	"encoding/json"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

func addressJSON(a domain.Address) []byte {
	b, _ := json.Marshal(a)
	return b
}

func unmarshalAddress(raw []byte) (*domain.Address, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a domain.Address
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
