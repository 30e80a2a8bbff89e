// Package storefront serves the cafe's display settings. Values come
// from an optional JSON seed file; anything missing falls back to the
// built-in defaults so invoices always render complete contact info.
package storefront

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings is the business contact block rendered on invoices and the
// public storefront page.
type Settings struct {
	Name            string `json:"name"`
	Tagline         string `json:"tagline"`
	Phone           string `json:"phone"`
	Whatsapp        string `json:"whatsapp"`
	Address         string `json:"address"`
	HoursText       string `json:"hours_text"`
	BusinessMessage string `json:"business_message"`
}

func defaults() Settings {
	return Settings{
		Name:            "Black Coffe",
		Tagline:         "Cafe premium, rapido y a tu manera",
		Phone:           "+502 0000-0000",
		Whatsapp:        "+502 0000-0000",
		Address:         "Escuintla, Guatemala",
		HoursText:       "Lun-Vie 7:00-19:00 | Sab-Dom 8:00-18:00",
		BusinessMessage: "Pedidos listos en 10-15 min | Calidad premium | Reservas disponibles",
	}
}

// Service reads settings from seedDir/settings.json.
type Service struct {
	seedDir string
}

func NewService(seedDir string) *Service { return &Service{seedDir: seedDir} }

// GetSettings never fails: a missing or unreadable seed file yields the
// defaults, and blank fields in the file are filled from them.
func (s *Service) GetSettings(ctx context.Context) Settings {
	out := defaults()
	if s.seedDir == "" {
		return out
	}
	raw, err := os.ReadFile(filepath.Join(s.seedDir, "settings.json"))
	if err != nil {
		return out
	}
	var seed Settings
	if err := json.Unmarshal(raw, &seed); err != nil {
		return out
	}
	merge(&out.Name, seed.Name)
	merge(&out.Tagline, seed.Tagline)
	merge(&out.Phone, seed.Phone)
	merge(&out.Whatsapp, seed.Whatsapp)
	merge(&out.Address, seed.Address)
	merge(&out.HoursText, seed.HoursText)
	merge(&out.BusinessMessage, seed.BusinessMessage)
	return out
}

func merge(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
