// Package pricing provides the priced-service catalog.
// Clean Architecture: Adapter implementing ports.PricingCatalog.
package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

const maxMatches = 3

// serviceTerms is the closed set of terms recognised by ExtractKeywords.
var serviceTerms = []string{
	"연구소", "벤처", "이노비즈", "메인비즈", "gs인증", "나라장터",
	"중소기업", "직접생산", "하이서울", "강소기업", "공장등록",
	"통신판매", "차량등록", "소프트웨어",
}

type catalogFile struct {
	Services []entities.PricedService `json:"services"`
}

// Catalog is an in-memory pricing table loaded from JSON.
// A catalog that failed to load answers every search with nil.
type Catalog struct {
	mu       sync.RWMutex
	services []entities.PricedService
	loaded   bool
}

// NewCatalog creates a catalog holding services.
func NewCatalog(services []entities.PricedService) *Catalog {
	return &Catalog{services: services, loaded: true}
}

// Unavailable returns a catalog in the degraded state.
func Unavailable() *Catalog {
	return &Catalog{}
}

// LoadFile reads a catalog of the form {"services":[...]}.
func LoadFile(path string) (*Catalog, error) {
	c := Unavailable()
	if err := c.Reload(path); err != nil {
		return c, err
	}
	return c, nil
}

// Reload replaces the catalog from path. On failure the previous
// contents are kept.
func (c *Catalog) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading pricing catalog: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding pricing catalog: %w", err)
	}

	c.mu.Lock()
	c.services = f.Services
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Loaded reports whether the catalog holds data.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Search scores each service by how many keywords occur in its name and
// description and returns the best three. Ties keep catalog order.
func (c *Catalog) Search(keywords []string) []entities.PricingMatch {
	c.mu.RLock()
	services, loaded := c.services, c.loaded
	c.mu.RUnlock()
	if !loaded {
		return nil
	}

	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	matches := make([]entities.PricingMatch, 0)
	for _, svc := range services {
		text := strings.ToLower(svc.Name + " " + svc.Description)
		score := 0
		for _, k := range lowered {
			if strings.Contains(text, k) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, entities.PricingMatch{PricedService: svc, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

// ExtractKeywords returns the known service terms found in message.
func (c *Catalog) ExtractKeywords(message string) []string {
	lower := strings.ToLower(message)
	var found []string
	for _, term := range serviceTerms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}
