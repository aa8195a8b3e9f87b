// Package catalog holds the purchasable events.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed events.yaml
var defaultEvents []byte

// Event is a purchasable event. Price is the on-chain price ("0.1 SHM"),
// PriceUSD the card price ("$45").
type Event struct {
	ID          int64  `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Date        string `yaml:"date" json:"date"`
	Time        string `yaml:"time" json:"time"`
	Location    string `yaml:"location" json:"location"`
	Price       string `yaml:"price" json:"price"`
	PriceUSD    string `yaml:"price_usd" json:"priceUsd"`
	Tier        string `yaml:"tier" json:"tier"`
	TicketsLeft int    `yaml:"tickets_left" json:"ticketsLeft"`
	Image       string `yaml:"image" json:"image,omitempty"`
}

// Amount is a parsed price.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

func (a Amount) String() string {
	if a.Currency == "USD" {
		return "$" + a.Value.StringFixed(2)
	}
	return a.Value.String() + " " + a.Currency
}

// ParsePrice accepts "<number> <SYMBOL>" or "$<number>".
func ParsePrice(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty price")
	}
	if strings.HasPrefix(s, "$") {
		v, err := decimal.NewFromString(strings.TrimSpace(s[1:]))
		if err != nil {
			return Amount{}, fmt.Errorf("invalid price %q: %w", s, err)
		}
		if v.IsNegative() {
			return Amount{}, fmt.Errorf("negative price %q", s)
		}
		return Amount{Value: v, Currency: "USD"}, nil
	}
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Amount{}, fmt.Errorf("invalid price %q", s)
	}
	v, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Amount{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if v.IsNegative() {
		return Amount{}, fmt.Errorf("negative price %q", s)
	}
	return Amount{Value: v, Currency: strings.ToUpper(fields[1])}, nil
}

// Catalog is an immutable set of events keyed by id.
type Catalog struct {
	events map[int64]Event
	order  []int64
}

type file struct {
	Events []Event `yaml:"events"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultEvents)
}

// Load reads a catalog from path, or the bundled one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{events: make(map[int64]Event, len(f.Events))}
	for _, e := range f.Events {
		if e.ID <= 0 {
			return nil, fmt.Errorf("event %q: id must be positive", e.Title)
		}
		if _, dup := c.events[e.ID]; dup {
			return nil, fmt.Errorf("duplicate event id %d", e.ID)
		}
		if _, err := ParsePrice(e.Price); err != nil {
			return nil, fmt.Errorf("event %d: %w", e.ID, err)
		}
		if e.PriceUSD != "" {
			if _, err := ParsePrice(e.PriceUSD); err != nil {
				return nil, fmt.Errorf("event %d: %w", e.ID, err)
			}
		}
		c.events[e.ID] = e
		c.order = append(c.order, e.ID)
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })
	return c, nil
}

func (c *Catalog) Get(id int64) (Event, bool) {
	e, ok := c.events[id]
	return e, ok
}

// List returns events ordered by id.
func (c *Catalog) List() []Event {
	out := make([]Event, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.events[id])
	}
	return out
}
